// Package utils holds input validation shared by the API and the domain.
package utils

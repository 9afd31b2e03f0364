package notification

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// AppCount is the number of held records for one app.
type AppCount struct {
	Package string `json:"package"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
}

// Stats summarises the live (unexpired) contents of the store.
type Stats struct {
	Count          int        `json:"count"`
	Capacity       int        `json:"capacity"`
	MeanAgeSeconds float64    `json:"mean_age_seconds"`
	StdAgeSeconds  float64    `json:"std_age_seconds"`
	OldestSeconds  float64    `json:"oldest_seconds"`
	Apps           []AppCount `json:"apps"`
}

// Stats purges expired records and summarises what remains.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	removed := s.purgeLocked()
	records := make([]Record, len(s.records))
	copy(records, s.records)
	s.mu.Unlock()
	s.afterPurge(removed, len(records))

	st := Stats{Count: len(records), Capacity: s.opts.Capacity, Apps: []AppCount{}}
	if len(records) == 0 {
		return st
	}

	now := s.opts.Now()
	ages := make([]float64, len(records))
	byPkg := make(map[string]*AppCount)
	for i, r := range records {
		ages[i] = r.Age(now).Seconds()
		if ages[i] > st.OldestSeconds {
			st.OldestSeconds = ages[i]
		}
		ac, ok := byPkg[r.SourcePackage]
		if !ok {
			ac = &AppCount{Package: r.SourcePackage, Name: r.ApplicationName}
			byPkg[r.SourcePackage] = ac
		}
		ac.Count++
	}

	if len(ages) > 1 {
		st.MeanAgeSeconds, st.StdAgeSeconds = stat.MeanStdDev(ages, nil)
	} else {
		st.MeanAgeSeconds = ages[0]
	}

	for _, ac := range byPkg {
		st.Apps = append(st.Apps, *ac)
	}
	sort.Slice(st.Apps, func(i, j int) bool {
		if st.Apps[i].Count != st.Apps[j].Count {
			return st.Apps[i].Count > st.Apps[j].Count
		}
		return st.Apps[i].Package < st.Apps[j].Package
	})
	return st
}

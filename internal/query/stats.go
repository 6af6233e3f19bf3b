package query

import (
	"time"

	"github.com/John-Robertt/doubanhot/internal/domain"
)

type Totals struct {
	Movies  int `json:"movies"`
	TV      int `json:"tv"`
	Variety int `json:"variety"`
	Anime   int `json:"anime"`
}

// Stats 是 Dataset 的计数摘要。Categories 以 group -> name -> count 组织。
type Stats struct {
	Timestamp  time.Time                 `json:"timestamp"`
	Totals     Totals                    `json:"totals"`
	Categories map[string]map[string]int `json:"categories"`
}

func ComputeStats(ds domain.Dataset) Stats {
	st := Stats{
		Timestamp:  ds.Timestamp,
		Categories: make(map[string]map[string]int, len(domain.Groups())),
	}
	for _, g := range domain.Groups() {
		st.Categories[g] = map[string]int{}
	}
	for _, sec := range ds.Sections() {
		n := len(sec.Records)
		st.Categories[sec.Group][sec.Name] = n
		switch sec.Group {
		case domain.GroupMovies:
			st.Totals.Movies += n
		case domain.GroupTV:
			st.Totals.TV += n
		case domain.GroupVariety:
			st.Totals.Variety += n
		case domain.GroupAnime:
			st.Totals.Anime += n
		}
	}
	return st
}

package classify

import (
	"github.com/feichai0017/docintel/internal/models"
)

// EntityProfile counts entity types and keeps a running average score per type
type EntityProfile struct {
	order []string
	stats map[string]*models.EntityStats
}

// BuildProfile folds entities into a profile in one pass
func BuildProfile(entities []models.Entity) *EntityProfile {
	p := &EntityProfile{stats: make(map[string]*models.EntityStats)}
	for _, e := range entities {
		p.add(e)
	}
	return p
}

func (p *EntityProfile) add(e models.Entity) {
	if e.Type == "" {
		return
	}
	s, ok := p.stats[e.Type]
	if !ok {
		s = &models.EntityStats{}
		p.stats[e.Type] = s
		p.order = append(p.order, e.Type)
	}
	s.Count++
	s.AverageScore += (e.Score - s.AverageScore) / float64(s.Count)
}

// Dominant is the most frequent type; ties go to the type seen first
func (p *EntityProfile) Dominant() (string, models.EntityStats, bool) {
	var best string
	for _, t := range p.order {
		if best == "" || p.stats[t].Count > p.stats[best].Count {
			best = t
		}
	}
	if best == "" {
		return "", models.EntityStats{}, false
	}
	return best, *p.stats[best], true
}

// Snapshot copies the profile into a plain map
func (p *EntityProfile) Snapshot() map[string]models.EntityStats {
	out := make(map[string]models.EntityStats, len(p.stats))
	for t, s := range p.stats {
		out[t] = *s
	}
	return out
}

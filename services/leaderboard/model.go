package leaderboard

import (
	"sort"
	"strings"

	"github.com/CleanExpo/LocalLift-sub000/services/badge"
	"github.com/CleanExpo/LocalLift-sub000/services/directory"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// RankCap bounds the ranking RankOfClient searches.
	RankCap = 1000

	ScopeGlobal    = "global"
	ScopeRegion    = "region"
	ScopeFranchise = "franchise"
)

type Entry struct {
	Rank                int     `json:"rank"`
	RegionRank          int     `json:"region_rank,omitempty"`
	FranchiseRank       int     `json:"franchise_rank,omitempty"`
	ClientID            string  `json:"client_id"`
	ClientName          string  `json:"client_name"`
	Region              string  `json:"region,omitempty"`
	RegionID            string  `json:"region_id,omitempty"`
	FranchiseID         string  `json:"franchise_id,omitempty"`
	TotalWeeks          int     `json:"total_weeks"`
	BadgesEarned        int     `json:"badges_earned"`
	TotalCompliantPosts int     `json:"total_compliant_posts"`
	TotalPosts          int     `json:"total_posts"`
	ComplianceRate      float64 `json:"compliance_rate"`
	AveragePosts        float64 `json:"average_posts"`
}

func (e Entry) inRegion(region string) bool {
	return region != "" && (strings.EqualFold(e.RegionID, region) || strings.EqualFold(e.Region, region))
}

func (e Entry) inFranchise(franchiseID string) bool {
	return franchiseID != "" && strings.EqualFold(e.FranchiseID, franchiseID)
}

// Scope restricts a leaderboard to a region or franchise. The zero value is
// global.
type Scope struct {
	Kind string
	ID   string
}

func (s Scope) kind() string {
	if s.Kind == "" {
		return ScopeGlobal
	}
	return s.Kind
}

type Query struct {
	Scope     Scope
	Timeframe Timeframe
	Limit     int
}

type ClientRank struct {
	Entry
	Ranked       bool    `json:"ranked"`
	Percentile   float64 `json:"percentile"`
	TotalClients int     `json:"total_clients"`
	Message      string  `json:"message,omitempty"`
}

// Rank aggregates badge records per known client, sorts by badges earned and
// compliance rate (both descending, then client id), and assigns ranks 1..N.
// Records of clients missing from the directory are ignored.
func Rank(records []badge.Record, clients map[string]directory.Client) []Entry {
	byClient := map[string][]badge.Record{}
	for _, r := range records {
		byClient[r.ClientID] = append(byClient[r.ClientID], r)
	}

	entries := make([]Entry, 0, len(byClient))
	for id, rows := range byClient {
		client, ok := clients[id]
		if !ok {
			continue
		}
		s := badge.Summarize(rows)
		e := Entry{
			ClientID:            id,
			ClientName:          client.DisplayName(),
			Region:              client.Region,
			RegionID:            client.RegionID,
			TotalWeeks:          s.TotalWeeks,
			BadgesEarned:        s.BadgesEarned,
			TotalCompliantPosts: s.TotalCompliantPosts,
			TotalPosts:          s.TotalPosts,
			ComplianceRate:      s.ComplianceRate,
			AveragePosts:        s.AveragePosts,
		}
		if client.FranchiseID != nil {
			e.FranchiseID = *client.FranchiseID
		}
		entries = append(entries, e)
	}

	return rankEntries(entries)
}

// rankEntries orders entries and numbers them 1..N in place.
func rankEntries(entries []Entry) []Entry {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.BadgesEarned != b.BadgesEarned {
			return a.BadgesEarned > b.BadgesEarned
		}
		if a.ComplianceRate != b.ComplianceRate {
			return a.ComplianceRate > b.ComplianceRate
		}
		return a.ClientID < b.ClientID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// Scoped keeps the entries inside scope and numbers them with a scope-local
// rank. Global rank is preserved.
func Scoped(entries []Entry, scope Scope) []Entry {
	var match func(Entry) bool
	switch scope.kind() {
	case ScopeRegion:
		match = func(e Entry) bool { return e.inRegion(scope.ID) }
	case ScopeFranchise:
		match = func(e Entry) bool { return e.inFranchise(scope.ID) }
	default:
		return entries
	}

	out := []Entry{}
	for _, e := range entries {
		if !match(e) {
			continue
		}
		switch scope.kind() {
		case ScopeRegion:
			e.RegionRank = len(out) + 1
		case ScopeFranchise:
			e.FranchiseRank = len(out) + 1
		}
		out = append(out, e)
	}
	return out
}

// Percentile is round((1 - rank/n) * 100, 1).
func Percentile(rank, n int) float64 {
	if n == 0 {
		return 0
	}
	return badge.Round1((1 - float64(rank)/float64(n)) * 100)
}

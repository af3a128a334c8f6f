package pool

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/mcdev12/dynasty/go/internal/models"
)

// RankingEntry is one row of a pasted rankings sheet.
type RankingEntry struct {
	Rank         int
	Name         string
	Team         string
	Position     models.Position
	PositionRank int
	ByeWeek      int
}

// ID returns the pool id for the entry.
func (e RankingEntry) ID() string {
	return models.PlayerIDFromName(e.Name)
}

var (
	rankLine     = regexp.MustCompile(`^(\d+)$`)
	nameLine     = regexp.MustCompile(`^(.+?)\s*\(([A-Za-z]{1,4})\)$`)
	positionLine = regexp.MustCompile(`^([A-Z]{1,3})(\d+)(?:\s+(\d+|-))?`)
)

// ParseRankings reads a rankings sheet copied out of a draft site. Entries
// span several lines:
//
//	606
//	Kyle McCord (PHI)
//	QB72	9
//	-
//
// Entries at non-draftable positions are dropped.
func ParseRankings(r io.Reader) ([]RankingEntry, error) {
	scanner := bufio.NewScanner(r)
	var (
		entries []RankingEntry
		cur     *RankingEntry
	)
	flush := func() {
		if cur != nil && cur.Name != "" && cur.Position != "" {
			entries = append(entries, *cur)
		}
		cur = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "-" {
			continue
		}
		switch {
		case rankLine.MatchString(line):
			flush()
			rank, _ := strconv.Atoi(line)
			cur = &RankingEntry{Rank: rank}
		case cur == nil:
			continue
		case nameLine.MatchString(line):
			m := nameLine.FindStringSubmatch(line)
			cur.Name = m[1]
			cur.Team = strings.ToUpper(m[2])
		case positionLine.MatchString(line):
			m := positionLine.FindStringSubmatch(line)
			pos, ok := models.ParsePosition(m[1])
			if !ok {
				cur = nil
				continue
			}
			cur.Position = pos
			cur.PositionRank, _ = strconv.Atoi(m[2])
			if m[3] != "" && m[3] != "-" {
				cur.ByeWeek, _ = strconv.Atoi(m[3])
			}
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rankings: %w", err)
	}
	return entries, nil
}

// RankingIDs returns the pool ids of entries ordered by rank.
func RankingIDs(entries []RankingEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID())
	}
	return ids
}

package pool

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/dynasty/go/internal/models"
)

// Provider yields the reference player pool.
type Provider interface {
	Players(ctx context.Context) ([]models.DraftPlayer, error)
}

// StaticProvider serves a fixed list of players.
type StaticProvider []models.DraftPlayer

func (s StaticProvider) Players(context.Context) ([]models.DraftPlayer, error) {
	out := make([]models.DraftPlayer, len(s))
	copy(out, s)
	return out, nil
}

// FileProvider loads projections from a JSON or CSV file.
type FileProvider struct {
	Path string
}

func (f FileProvider) Players(ctx context.Context) ([]models.DraftPlayer, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open projections: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".json":
		return DecodeProjectionsJSON(file)
	case ".csv":
		return DecodeProjectionsCSV(file)
	default:
		return nil, fmt.Errorf("unsupported projections file %q", f.Path)
	}
}

// projectionRecord accepts both the projection export columns
// (fantasy_points, position_rank) and the draft pool columns
// (projected_points, adp, bye_week).
type projectionRecord struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Position        string  `json:"position"`
	Team            string  `json:"team"`
	Games           float64 `json:"games"`
	FantasyPoints   float64 `json:"fantasy_points"`
	ProjectedPoints float64 `json:"projected_points"`
	PositionRank    int     `json:"position_rank"`
	ADP             float64 `json:"adp"`
	ByeWeek         int     `json:"bye_week"`
}

func (r projectionRecord) toPlayer() (models.DraftPlayer, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return models.DraftPlayer{}, errors.New("missing name")
	}
	pos, ok := models.ParsePosition(r.Position)
	if !ok {
		return models.DraftPlayer{}, fmt.Errorf("position %q is not draftable", r.Position)
	}
	points := r.ProjectedPoints
	if points == 0 {
		points = r.FantasyPoints
	}
	p := models.DraftPlayer{
		ID:              strings.TrimSpace(r.ID),
		Name:            name,
		Position:        pos,
		Team:            strings.ToUpper(strings.TrimSpace(r.Team)),
		ADP:             r.ADP,
		ProjectedPoints: points,
		ByeWeek:         r.ByeWeek,
	}
	p.EnsureID()
	return p, nil
}

// DecodeProjectionsJSON reads a JSON array of projection records.
func DecodeProjectionsJSON(r io.Reader) ([]models.DraftPlayer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read projections: %w", err)
	}
	var records []projectionRecord
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode projections: %w", err)
	}
	return toPlayers(records), nil
}

// DecodeProjectionsCSV reads projection records from a CSV file with a
// header row. Unknown columns are ignored.
func DecodeProjectionsCSV(r io.Reader) ([]models.DraftPlayer, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read projections header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, errors.New("projections header has no name column")
	}

	field := func(row []string, name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	num := func(row []string, name string) float64 {
		v, _ := strconv.ParseFloat(field(row, name), 64)
		return v
	}

	var records []projectionRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read projections line %d: %w", line, err)
		}
		records = append(records, projectionRecord{
			ID:              field(row, "id"),
			Name:            field(row, "name"),
			Position:        field(row, "position"),
			Team:            field(row, "team"),
			Games:           num(row, "games"),
			FantasyPoints:   num(row, "fantasy_points"),
			ProjectedPoints: num(row, "projected_points"),
			PositionRank:    int(num(row, "position_rank")),
			ADP:             num(row, "adp"),
			ByeWeek:         int(num(row, "bye_week")),
		})
	}
	return toPlayers(records), nil
}

func toPlayers(records []projectionRecord) []models.DraftPlayer {
	players := make([]models.DraftPlayer, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		p, err := rec.toPlayer()
		if err != nil {
			log.Debug().Err(err).Int("row", i).Msg("skipping projection")
			continue
		}
		if _, dup := seen[p.ID]; dup {
			log.Warn().Str("player_id", p.ID).Msg("duplicate player in projections")
			continue
		}
		seen[p.ID] = struct{}{}
		players = append(players, p)
	}
	return players
}

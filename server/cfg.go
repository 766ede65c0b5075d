package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/zucenko/santorini/model"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRows = 5
	DefaultCols = 5
)

type Config struct {
	Port        string        `yaml:"port" env:"PORT"`
	Players     int           `yaml:"players" env:"SANTORINI_PLAYERS"`
	Layout      string        `yaml:"layout" env:"SANTORINI_LAYOUT"`
	JoinTimeout time.Duration `yaml:"join_timeout" env:"SANTORINI_JOIN_TIMEOUT"`
	LogLevel    string        `yaml:"log_level" env:"LOG_LEVEL"`
}

func DefaultConfig() Config {
	return Config{
		Port:        "8080",
		Players:     2,
		JoinTimeout: 200 * time.Millisecond,
		LogLevel:    "info",
	}
}

// LoadConfig layers the yaml file at path (optional) and then the environment over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Players < 2 || cfg.Players > 3 {
		return cfg, fmt.Errorf("players %d: need 2 or 3", cfg.Players)
	}
	if cfg.JoinTimeout <= 0 {
		return cfg, fmt.Errorf("join timeout %s must be positive", cfg.JoinTimeout)
	}
	return cfg, nil
}

type Preset struct {
	Player   int32
	Category model.Category
	Row, Col int
}

type Layout struct {
	Board   *model.Board
	Workers []Preset
}

func LoadLayout(path string) (*Layout, error) {
	if path == "" {
		return &Layout{Board: model.NewBoard(DefaultRows, DefaultCols)}, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	layout, err := ReadLayout(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return layout, nil
}

var errEmptyLayout = errors.New("empty layout")

// ReadLayout parses one board row per line. Each cell is <height>[X][worker]:
// a height 0-3, X for a dome and a worker letter, upper case for the male worker
// and lower case for the female worker of player A, B or C.
func ReadLayout(reader io.Reader) (*Layout, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)
	lines := make([][]string, 0)
	for scanner.Scan() {
		s := strings.TrimSpace(scanner.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		lines = append(lines, strings.Fields(s))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errEmptyLayout
	}

	board := model.NewBoard(len(lines), len(lines[0]))
	layout := &Layout{Board: board}
	seen := make(map[Preset]bool)
	for r, line := range lines {
		if len(line) != board.Cols {
			return nil, fmt.Errorf("line %d: %d cells, want %d", r+1, len(line), board.Cols)
		}
		for c, token := range line {
			cell := board.Matrix[r][c]
			if token[0] < '0' || token[0] > '0'+model.MaxHeight {
				return nil, fmt.Errorf("line %d col %d: bad height in %q", r+1, c+1, token)
			}
			cell.Height = int(token[0] - '0')
			for _, char := range token[1:] {
				switch char {
				case 'X':
					cell.Dome = true
				case 'A', 'B', 'C':
					p := Preset{Player: char, Category: model.Male, Row: r, Col: c}
					if err := addPreset(layout, seen, p); err != nil {
						return nil, fmt.Errorf("line %d col %d: %w", r+1, c+1, err)
					}
				case 'a', 'b', 'c':
					p := Preset{Player: char - 'a' + 'A', Category: model.Female, Row: r, Col: c}
					if err := addPreset(layout, seen, p); err != nil {
						return nil, fmt.Errorf("line %d col %d: %w", r+1, c+1, err)
					}
				default:
					return nil, fmt.Errorf("line %d col %d: bad cell %q", r+1, c+1, token)
				}
			}
			if cell.Dome && hasPresetAt(layout, r, c) {
				return nil, fmt.Errorf("line %d col %d: worker on a dome", r+1, c+1)
			}
		}
	}
	return layout, nil
}

func addPreset(l *Layout, seen map[Preset]bool, p Preset) error {
	key := Preset{Player: p.Player, Category: p.Category}
	if seen[key] {
		return fmt.Errorf("worker %c/%d twice", p.Player, p.Category)
	}
	if hasPresetAt(l, p.Row, p.Col) {
		return fmt.Errorf("two workers on one cell")
	}
	seen[key] = true
	l.Workers = append(l.Workers, p)
	return nil
}

func hasPresetAt(l *Layout, row, col int) bool {
	for _, w := range l.Workers {
		if w.Row == row && w.Col == col {
			return true
		}
	}
	return false
}

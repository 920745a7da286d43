// Package automation scripts pointer input and batches of headless runs.
package automation

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/marbling/internal/dynamo"
	"github.com/san-kum/marbling/internal/force"
)

// strokeRate is the sampling rate, in events per second, of stroke steps.
const strokeRate = 60.0

// Scenario is a scripted pointer performance.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one pointer action at time At (seconds). A "stroke" moves
// from (X, Y) to (ToX, ToY) over Duration seconds.
type ScenarioStep struct {
	At       float64 `yaml:"at"`
	Kind     string  `yaml:"kind"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	ToX      float64 `yaml:"to_x"`
	ToY      float64 `yaml:"to_y"`
	Duration float64 `yaml:"duration"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &scenario, nil
}

func (s *Scenario) Validate() error {
	for i, st := range s.Steps {
		if !dynamo.IsFinite(st.At, st.X, st.Y, st.ToX, st.ToY, st.Duration) || st.At < 0 {
			return fmt.Errorf("step %d: %w: non-finite or negative time", i+1, dynamo.ErrParameterBounds)
		}
		switch st.Kind {
		case "move", "press", "release", "leave", "lost":
		case "stroke":
			if st.Duration <= 0 {
				return fmt.Errorf("step %d: %w: stroke needs a positive duration", i+1, dynamo.ErrParameterBounds)
			}
		default:
			return fmt.Errorf("step %d: %w: kind %q", i+1, dynamo.ErrUnknownParameter, st.Kind)
		}
	}
	return nil
}

// Events expands the scenario into time-ordered pointer events. Positions
// are clamped to the field.
func (s *Scenario) Events() []force.Event {
	var out []force.Event
	pos := func(x, y float64) dynamo.Vec2 {
		return dynamo.V2(dynamo.Clamp(x, 0, 1), dynamo.Clamp(y, 0, 1))
	}

	for _, st := range s.Steps {
		switch st.Kind {
		case "move":
			out = append(out, force.Event{Kind: force.Move, Position: pos(st.X, st.Y), Time: st.At})
		case "press":
			out = append(out, force.Event{Kind: force.Engage, Engaged: true, Position: pos(st.X, st.Y), Time: st.At})
		case "release":
			out = append(out, force.Event{Kind: force.Engage, Engaged: false, Position: pos(st.X, st.Y), Time: st.At})
		case "leave":
			out = append(out, force.Event{Kind: force.Leave, Time: st.At})
		case "lost":
			out = append(out, force.Event{Kind: force.Lost, Time: st.At})
		case "stroke":
			n := int(math.Ceil(st.Duration * strokeRate))
			from, to := dynamo.V2(st.X, st.Y), dynamo.V2(st.ToX, st.ToY)
			for i := 0; i <= n; i++ {
				f := float64(i) / float64(n)
				p := from.Mix(to, f)
				out = append(out, force.Event{Kind: force.Move, Position: pos(p.X, p.Y), Time: st.At + f*st.Duration})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

// Player replays a scenario as a sim.Driver.
type Player struct {
	events []force.Event
}

func NewPlayer(s *Scenario) *Player {
	return &Player{events: s.Events()}
}

// Events returns the events with prev < Time <= now.
func (p *Player) Events(prev, now float64) []force.Event {
	lo := sort.Search(len(p.events), func(i int) bool { return p.events[i].Time > prev })
	hi := sort.Search(len(p.events), func(i int) bool { return p.events[i].Time > now })
	if lo >= hi {
		return nil
	}
	return p.events[lo:hi]
}

// Len is the number of expanded events.
func (p *Player) Len() int { return len(p.events) }

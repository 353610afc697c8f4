package avoid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams_DefaultsValid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		wantOK bool
	}{
		{"valid", func(p *Params) {}, true},
		{"equal thresholds allowed", func(p *Params) {
			p.Stop, p.Danger, p.Caution, p.Safe = 20, 20, 20, 20
		}, true},
		{"stop above danger", func(p *Params) { p.Stop = p.Danger + 1 }, false},
		{"danger above caution", func(p *Params) { p.Danger = p.Caution + 1 }, false},
		{"caution above safe", func(p *Params) { p.Caution = p.Safe + 1 }, false},
		{"forward speed negative", func(p *Params) { p.ForwardSpeed = -1 }, false},
		{"turn speed above 100", func(p *Params) { p.TurnSpeed = 101 }, false},
		{"turn angle out of range", func(p *Params) { p.TurnAngle = 46 }, false},
		{"reverse angle negative", func(p *Params) { p.ReverseAngle = -1 }, false},
		{"zero loop period", func(p *Params) { p.LoopPeriod = 0 }, false},
		{"negative stale timeout", func(p *Params) { p.StaleTimeout = -0.1 }, false},
		{"zero accel rate", func(p *Params) { p.AccelRate = 0 }, false},
		{"alpha above one", func(p *Params) { p.EMAAlpha = 1.1 }, false},
		{"alpha zero allowed", func(p *Params) { p.EMAAlpha = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantOK {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidParams)
			}
		})
	}
}

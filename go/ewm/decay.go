package ewm

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// ConfigError reports an invalid decay or gating parameter.
type ConfigError struct {
	Msg string
	err error
}

func (e *ConfigError) Error() string { return e.Msg }
func (e *ConfigError) Unwrap() error { return e.err }

var (
	ErrMutuallyExclusive = errors.New("comass, span, halflife, and alpha are mutually exclusive")
	ErrNoDecay           = errors.New("must pass one of comass, span, halflife, or alpha")
)

func domainError(constraint string) error {
	return &ConfigError{Msg: constraint}
}

type decayKind int

const (
	kindNone decayKind = iota
	kindCom
	kindSpan
	kindHalfLife
	kindAlpha
)

var kindNames = [...]string{
	kindNone:     "none",
	kindCom:      "comass",
	kindSpan:     "span",
	kindHalfLife: "halflife",
	kindAlpha:    "alpha",
}

// Decay is one of the four ways of expressing the decay rate.
// The zero value has no decay set and fails to resolve.
type Decay struct {
	kind decayKind
	v    float64
}

func Com(c float64) Decay      { return Decay{kindCom, c} }
func Span(s float64) Decay     { return Decay{kindSpan, s} }
func HalfLife(h float64) Decay { return Decay{kindHalfLife, h} }
func Alpha(a float64) Decay    { return Decay{kindAlpha, a} }

func (d Decay) String() string {
	if d.kind == kindNone {
		return "none"
	}
	return kindNames[d.kind] + "=" + strconv.FormatFloat(d.v, 'g', -1, 64)
}

// Alpha returns the canonical decay factor in (0, 1].
func (d Decay) Alpha() (float64, error) {
	// Comparisons are written so that NaN fails every check.
	var a float64
	switch d.kind {
	case kindCom:
		if !(d.v >= 0) {
			return 0, domainError("comass must satisfy: comass >= 0")
		}
		a = 1 / (1 + d.v)
	case kindSpan:
		if !(d.v >= 1) {
			return 0, domainError("span must satisfy: span >= 1")
		}
		a = 2 / (d.v + 1)
	case kindHalfLife:
		if !(d.v > 0) {
			return 0, domainError("halflife must satisfy: halflife > 0")
		}
		a = 1 - math.Exp(math.Log(0.5)/d.v)
	case kindAlpha:
		if !(0 < d.v && d.v <= 1) {
			return 0, domainError("alpha must satisfy: 0 < alpha <= 1")
		}
		return d.v, nil
	default:
		return 0, &ConfigError{Msg: ErrNoDecay.Error(), err: ErrNoDecay}
	}
	// Infinite (or huge) com, span and halflife decay to alpha = 0.
	if !(a > 0) {
		return 0, domainError(kindNames[d.kind] + " is too large: alpha must satisfy: 0 < alpha <= 1")
	}
	return a, nil
}

// DecaySpec is the configuration form of Decay: at most one field may be set.
type DecaySpec struct {
	Com      *float64 `json:"com,omitempty"`
	Span     *float64 `json:"span,omitempty"`
	HalfLife *float64 `json:"halflife,omitempty"`
	Alpha    *float64 `json:"alpha,omitempty"`
}

// Decay checks exclusivity and returns the single decay that is set.
func (s DecaySpec) Decay() (Decay, error) {
	var (
		d     Decay
		found []string
	)
	if s.Com != nil {
		d = Com(*s.Com)
		found = append(found, kindNames[kindCom])
	}
	if s.Span != nil {
		d = Span(*s.Span)
		found = append(found, kindNames[kindSpan])
	}
	if s.HalfLife != nil {
		d = HalfLife(*s.HalfLife)
		found = append(found, kindNames[kindHalfLife])
	}
	if s.Alpha != nil {
		d = Alpha(*s.Alpha)
		found = append(found, kindNames[kindAlpha])
	}
	switch len(found) {
	case 0:
		return Decay{}, &ConfigError{Msg: ErrNoDecay.Error(), err: ErrNoDecay}
	case 1:
		return d, nil
	}
	return Decay{}, &ConfigError{
		Msg: ErrMutuallyExclusive.Error() + " (found " + strings.Join(found, ", ") + ")",
		err: ErrMutuallyExclusive,
	}
}

// Resolve returns the canonical decay factor.
func (s DecaySpec) Resolve() (float64, error) {
	d, err := s.Decay()
	if err != nil {
		return 0, err
	}
	return d.Alpha()
}

type jsonDecaySpec DecaySpec

// UnmarshalJSON rejects specs that set more than one field.
// An empty spec is accepted so that it can be filled from defaults.
func (s *DecaySpec) UnmarshalJSON(data []byte) error {
	var st jsonDecaySpec
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if !DecaySpec(st).IsZero() {
		if _, err := DecaySpec(st).Decay(); err != nil {
			return err
		}
	}
	*s = DecaySpec(st)
	return nil
}

func (s DecaySpec) IsZero() bool {
	return s.Com == nil && s.Span == nil && s.HalfLife == nil && s.Alpha == nil
}

func (s DecaySpec) String() string {
	d, err := s.Decay()
	if err != nil {
		return "invalid"
	}
	return d.String()
}

// ResolveDecay converts one of com, span, halflife or alpha into the
// canonical decay factor. Exactly one argument must be non-nil.
func ResolveDecay(com, span, halflife, alpha *float64) (float64, error) {
	return DecaySpec{Com: com, Span: span, HalfLife: halflife, Alpha: alpha}.Resolve()
}

// F is a convenience for filling in DecaySpec fields.
func F(v float64) *float64 { return &v }

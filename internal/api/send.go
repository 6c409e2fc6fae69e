package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/oscalarm/oscalarm/common"
	"github.com/oscalarm/oscalarm/internal/osc"
)

// SendParameter sends an arbitrary parameter to the peer.
func (s *Api) SendParameter(ctx context.Context, p *common.SendParams) error {
	if p == nil || p.Path == "" {
		return fmt.Errorf("%w: missing required param: path", ErrInvalidParams)
	}
	v, err := parseTyped(p.Type, p.Value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultSendTimeout)
	defer cancel()
	if err := s.peer.SendRaw(ctx, p.Path, v); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

func parseTyped(typ, text string) (osc.Value, error) {
	switch typ {
	case "":
		return osc.ParseValue(text), nil
	case "bool":
		b, err := strconv.ParseBool(text)
		if err != nil {
			return osc.Value{}, fmt.Errorf("bad bool %q", text)
		}
		return osc.Bool(b), nil
	case "float":
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return osc.Value{}, fmt.Errorf("bad float %q", text)
		}
		return osc.Float(float32(f)), nil
	case "int":
		i, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return osc.Value{}, fmt.Errorf("bad int %q", text)
		}
		return osc.Int(int32(i)), nil
	case "string":
		return osc.String(text), nil
	default:
		return osc.Value{}, fmt.Errorf("unknown type %q", typ)
	}
}

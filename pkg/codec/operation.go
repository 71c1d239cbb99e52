package codec

import (
	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/token"
)

// operationProperty writes the result of an exposed operation. It is
// output only; incoming values are skipped.
type operationProperty struct{ op *schema.Operation }

func (p *operationProperty) Field() string      { return p.op.Field() }
func (p *operationProperty) Kind() PropertyKind { return OperationProperty }

func (p *operationProperty) decode(_ *decodeState, s token.Stream, _ *graph.Node) error {
	return skip(s)
}

func (p *operationProperty) encode(st *encodeState, n *graph.Node) error {
	inv := st.c.opts.Invoker
	if inv == nil || n.IsProxy() {
		return nil
	}
	v, err := inv.Invoke(p.op, n)
	if err != nil {
		st.doc.Diagnosef(errors.ErrCodeOperationFailed, -1, "%s.%s on %s: %v", p.op.Owner(), p.op.Name, n, err)
		st.c.log.Debug("operation failed", "op", p.op.Name, "node", n, "err", err)
		st.w.Field(p.Field())
		st.w.Null()
		return nil
	}
	if v == nil {
		return nil
	}
	st.w.Field(p.Field())
	encodeAny(st.w, v)
	return nil
}

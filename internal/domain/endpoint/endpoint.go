// Package endpoint implements the request/response contract shared by every
// Battle.net resource: an Endpoint describes a path template, a namespace and
// the DTO it decodes into; a Request is one immutable instantiation of it.
package endpoint

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/cases"

	"github.com/okian/bnet/internal/domain/namespace"
)

// Transport is the single capability a client must offer: one GET of a
// resource path inside a namespace, returning the raw response body.
// Implementations must be safe for concurrent use.
type Transport interface {
	Get(ctx context.Context, path string, ns namespace.Namespace) ([]byte, error)
}

// segment is either a literal chunk of the template or a placeholder index.
type segment struct {
	literal string
	param   int // -1 for literals
}

type definition struct {
	name      string
	template  string
	ns        namespace.Namespace
	params    []string
	segments  []segment
	typeLabel string
}

// Endpoint describes one remote resource decoding into T. The zero value is
// not usable; construct with New or MustNew.
type Endpoint[T any] struct {
	def *definition
}

// New parses template and returns an Endpoint. Placeholders are written as
// {name}; the template must start with "/".
func New[T any](name, template string, ns namespace.Namespace) (Endpoint[T], error) {
	if strings.TrimSpace(name) == "" {
		return Endpoint[T]{}, fmt.Errorf("%w: endpoint name is empty", ErrInvalidRequest)
	}
	if !ns.Valid() {
		return Endpoint[T]{}, fmt.Errorf("%w: endpoint %s has invalid namespace %s", ErrInvalidRequest, name, ns)
	}
	segments, params, err := parseTemplate(template)
	if err != nil {
		return Endpoint[T]{}, fmt.Errorf("%w: endpoint %s: %v", ErrInvalidRequest, name, err)
	}
	return Endpoint[T]{def: &definition{
		name:      name,
		template:  template,
		ns:        ns,
		params:    params,
		segments:  segments,
		typeLabel: fmt.Sprintf("%T", *new(T)),
	}}, nil
}

// MustNew is like New but panics on error. Intended for package-level
// endpoint declarations.
func MustNew[T any](name, template string, ns namespace.Namespace) Endpoint[T] {
	e, err := New[T](name, template, ns)
	if err != nil {
		panic(err)
	}
	return e
}

func parseTemplate(template string) ([]segment, []string, error) {
	if !strings.HasPrefix(template, "/") {
		return nil, nil, fmt.Errorf("template %q must start with /", template)
	}
	var (
		segments []segment
		params   []string
		seen     = make(map[string]bool)
		rest     = template
	)
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			if strings.IndexByte(rest, '}') >= 0 {
				return nil, nil, fmt.Errorf("template %q has unbalanced }", template)
			}
			segments = append(segments, segment{literal: rest, param: -1})
			break
		}
		if strings.IndexByte(rest[:open], '}') >= 0 {
			return nil, nil, fmt.Errorf("template %q has unbalanced }", template)
		}
		if open > 0 {
			segments = append(segments, segment{literal: rest[:open], param: -1})
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			return nil, nil, fmt.Errorf("template %q has unterminated placeholder", template)
		}
		name := rest[open+1 : open+closing]
		if name == "" || strings.ContainsAny(name, "{/") {
			return nil, nil, fmt.Errorf("template %q has invalid placeholder %q", template, name)
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("template %q repeats placeholder %q", template, name)
		}
		seen[name] = true
		segments = append(segments, segment{param: len(params)})
		params = append(params, name)
		rest = rest[open+closing+1:]
	}
	return segments, params, nil
}

// Name returns the endpoint identifier.
func (e Endpoint[T]) Name() string {
	if e.def == nil {
		return ""
	}
	return e.def.name
}

// Template returns the unexpanded path template.
func (e Endpoint[T]) Template() string {
	if e.def == nil {
		return ""
	}
	return e.def.template
}

// Namespace returns the fixed namespace of every request built from e.
func (e Endpoint[T]) Namespace() namespace.Namespace {
	if e.def == nil {
		return 0
	}
	return e.def.ns
}

// Params returns the placeholder names in template order.
func (e Endpoint[T]) Params() []string {
	if e.def == nil {
		return nil
	}
	out := make([]string, len(e.def.params))
	copy(out, e.def.params)
	return out
}

// Build normalizes params and returns an immutable Request. Each parameter is
// case-folded exactly once here, so inputs differing only by case share a
// path. The referenced entity is not checked for existence; that is the
// remote API's job.
func (e Endpoint[T]) Build(params ...string) (Request[T], error) {
	if e.def == nil {
		return Request[T]{}, fmt.Errorf("%w: endpoint not initialised", ErrInvalidRequest)
	}
	if len(params) != len(e.def.params) {
		return Request[T]{}, fmt.Errorf("%w: %s expects %d parameter(s) %v, got %d",
			ErrInvalidRequest, e.def.name, len(e.def.params), e.def.params, len(params))
	}
	fold := cases.Fold()
	normalized := make([]string, len(params))
	for i, p := range params {
		if p == "" {
			return Request[T]{}, fmt.Errorf("%w: %s parameter %s is empty", ErrInvalidRequest, e.def.name, e.def.params[i])
		}
		normalized[i] = fold.String(p)
	}
	return Request[T]{def: e.def, params: normalized}, nil
}

// Fetch builds a request from params and dispatches it over t.
func (e Endpoint[T]) Fetch(ctx context.Context, t Transport, params ...string) (*T, error) {
	req, err := e.Build(params...)
	if err != nil {
		return nil, err
	}
	return Dispatch(ctx, t, req)
}

// Request is one call to an Endpoint. It is immutable once built.
type Request[T any] struct {
	def    *definition
	params []string
}

// Endpoint returns the name of the endpoint the request was built from.
func (r Request[T]) Endpoint() string {
	if r.def == nil {
		return ""
	}
	return r.def.name
}

// Params returns a copy of the normalized parameters.
func (r Request[T]) Params() []string {
	out := make([]string, len(r.params))
	copy(out, r.params)
	return out
}

// Namespace returns the namespace fixed by the endpoint.
func (r Request[T]) Namespace() namespace.Namespace {
	if r.def == nil {
		return 0
	}
	return r.def.ns
}

// Path interpolates the normalized parameters into the template. Parameters
// are path-escaped, so a "/" inside one cannot alias another resource.
func (r Request[T]) Path() string {
	if r.def == nil {
		return ""
	}
	var b strings.Builder
	for _, s := range r.def.segments {
		if s.param < 0 {
			b.WriteString(s.literal)
			continue
		}
		b.WriteString(url.PathEscape(r.params[s.param]))
	}
	return b.String()
}

func (r Request[T]) valid() bool { return r.def != nil }

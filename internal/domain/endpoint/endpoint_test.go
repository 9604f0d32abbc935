package endpoint_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/okian/bnet/internal/domain/endpoint"
	"github.com/okian/bnet/internal/domain/namespace"
	. "github.com/smartystreets/goconvey/convey"
)

type realmDTO struct {
	ID       int    `json:"id" validate:"required"`
	Slug     string `json:"slug" validate:"required"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type characterDTO struct {
	ID         int    `json:"id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Level      int    `json:"level"`
	RealmSlug  string `json:"realm_slug"`
	GuildName  string `json:"guild_name,omitempty"`
	Experience int64  `json:"experience"`
}

// fakeTransport answers every GET with body and counts calls.
type fakeTransport struct {
	body  []byte
	err   error
	calls atomic.Int64
	last  atomic.Value
}

func (f *fakeTransport) Get(_ context.Context, path string, ns namespace.Namespace) ([]byte, error) {
	f.calls.Add(1)
	f.last.Store(path + "|" + ns.String())
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

// echoTransport returns a character whose name is the last path segment.
type echoTransport struct{}

func (echoTransport) Get(_ context.Context, path string, _ namespace.Namespace) ([]byte, error) {
	parts := strings.Split(path, "/")
	return json.Marshal(characterDTO{ID: len(path), Name: parts[len(parts)-1], RealmSlug: parts[len(parts)-2]})
}

var characterEndpoint = endpoint.MustNew[characterDTO](
	"character-profile",
	"/profile/wow/character/{realmSlug}/{characterName}",
	namespace.Profile,
)

func TestEndpointNew(t *testing.T) {
	Convey("Given endpoint templates", t, func() {
		Convey("When the template is well formed", func() {
			e, err := endpoint.New[realmDTO]("realm", "/data/wow/realm/{realmSlug}", namespace.Dynamic)

			Convey("Then placeholders are extracted in order", func() {
				So(err, ShouldBeNil)
				So(e.Name(), ShouldEqual, "realm")
				So(e.Params(), ShouldResemble, []string{"realmSlug"})
				So(e.Namespace(), ShouldEqual, namespace.Dynamic)
				So(e.Template(), ShouldEqual, "/data/wow/realm/{realmSlug}")
			})
		})

		Convey("When the template is malformed", func() {
			bad := []string{
				"data/wow/realm/{realmSlug}",
				"/data/wow/realm/{realmSlug",
				"/data/wow/realm/realmSlug}",
				"/data/wow/realm/{}",
				"/data/{a}/{a}",
			}
			for _, tpl := range bad {
				_, err := endpoint.New[realmDTO]("realm", tpl, namespace.Dynamic)
				So(errors.Is(err, endpoint.ErrInvalidRequest), ShouldBeTrue)
			}
		})

		Convey("When the namespace is not declared", func() {
			_, err := endpoint.New[realmDTO]("realm", "/data/wow/realm/{realmSlug}", namespace.Namespace(0))
			So(errors.Is(err, endpoint.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When MustNew gets a bad template", func() {
			So(func() { endpoint.MustNew[realmDTO]("realm", "nope", namespace.Static) }, ShouldPanic)
		})
	})
}

func TestBuildAndPath(t *testing.T) {
	Convey("Given the character endpoint", t, func() {
		Convey("When building with mixed-case parameters", func() {
			req, err := characterEndpoint.Build("Tarren-Mill", "ThRaLL")

			Convey("Then stored parameters are case-folded", func() {
				So(err, ShouldBeNil)
				So(req.Params(), ShouldResemble, []string{"tarren-mill", "thrall"})
				So(req.Namespace(), ShouldEqual, namespace.Profile)
				So(req.Endpoint(), ShouldEqual, "character-profile")
			})

			Convey("Then the path interpolates normalized values", func() {
				So(req.Path(), ShouldEqual, "/profile/wow/character/tarren-mill/thrall")
			})

			Convey("Then mutating the returned params does not change the request", func() {
				p := req.Params()
				p[0] = "other"
				So(req.Params()[0], ShouldEqual, "tarren-mill")
				So(req.Path(), ShouldEqual, "/profile/wow/character/tarren-mill/thrall")
			})
		})

		Convey("When two requests differ only by case", func() {
			a, errA := characterEndpoint.Build("EU", "Realm")
			b, errB := characterEndpoint.Build("eu", "realm")
			So(errA, ShouldBeNil)
			So(errB, ShouldBeNil)
			So(a.Path(), ShouldEqual, b.Path())
		})

		Convey("When Greek parameters differ only by case", func() {
			pairs := [][2]string{{"ΟΔΟΣ", "οδοσ"}, {"ΣΑΣ", "σασ"}, {"οδος", "ΟΔΟΣ"}}
			for _, p := range pairs {
				a, errA := characterEndpoint.Build(p[0], "realm")
				b, errB := characterEndpoint.Build(p[1], "REALM")
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a.Path(), ShouldEqual, b.Path())
			}
		})

		Convey("When parameters carry non-ASCII letters", func() {
			req, err := characterEndpoint.Build("Zul'jin", "Ærwyn")
			So(err, ShouldBeNil)
			So(req.Params(), ShouldResemble, []string{"zul'jin", "ærwyn"})
			So(req.Path(), ShouldEqual, "/profile/wow/character/zul%27jin/%C3%A6rwyn")
		})

		Convey("When a parameter contains a slash", func() {
			a, _ := characterEndpoint.Build("a/b", "c")
			b, _ := characterEndpoint.Build("a", "b/c")
			So(a.Path(), ShouldNotEqual, b.Path())
			So(a.Path(), ShouldEqual, "/profile/wow/character/a%2Fb/c")
		})

		Convey("When the parameter count is wrong", func() {
			_, err := characterEndpoint.Build("tarren-mill")
			So(errors.Is(err, endpoint.ErrInvalidRequest), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "expects 2 parameter(s)")
		})

		Convey("When a parameter is empty", func() {
			_, err := characterEndpoint.Build("tarren-mill", "")
			So(errors.Is(err, endpoint.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When the endpoint is the zero value", func() {
			var zero endpoint.Endpoint[characterDTO]
			_, err := zero.Build("a", "b")
			So(errors.Is(err, endpoint.ErrInvalidRequest), ShouldBeTrue)

			Convey("Then its accessors report empty values", func() {
				So(zero.Name(), ShouldBeEmpty)
				So(zero.Template(), ShouldBeEmpty)
				So(zero.Namespace().Valid(), ShouldBeFalse)
				So(zero.Params(), ShouldBeNil)
			})
		})
	})
}

func TestDecode(t *testing.T) {
	Convey("Given wire JSON documents", t, func() {
		Convey("When a DTO is serialized and decoded again", func() {
			in := characterDTO{ID: 7, Name: "thrall", Level: 80, RealmSlug: "draenor", GuildName: "horde", Experience: 12}
			data, err := json.Marshal(in)
			So(err, ShouldBeNil)

			out, err := endpoint.Decode[characterDTO](data)

			Convey("Then the result equals the original", func() {
				So(err, ShouldBeNil)
				So(*out, ShouldResemble, in)
			})

			Convey("Then the wire document uses the renamed fields", func() {
				So(string(data), ShouldContainSubstring, `"realm_slug":"draenor"`)
				So(string(data), ShouldContainSubstring, `"guild_name":"horde"`)
			})
		})

		Convey("When a required field is missing", func() {
			out, err := endpoint.Decode[realmDTO]([]byte(`{"id": 1, "name": "Draenor"}`))

			Convey("Then a DecodeError names the wire field and no value is returned", func() {
				So(out, ShouldBeNil)
				So(errors.Is(err, endpoint.ErrDecode), ShouldBeTrue)
				var de *endpoint.DecodeError
				So(errors.As(err, &de), ShouldBeTrue)
				So(de.Field, ShouldEqual, "slug")
				So(de.Target, ShouldEqual, "endpoint_test.realmDTO")
			})
		})

		Convey("When a field has the wrong type", func() {
			out, err := endpoint.Decode[realmDTO]([]byte(`{"id": "one", "slug": "draenor"}`))
			So(out, ShouldBeNil)
			var de *endpoint.DecodeError
			So(errors.As(err, &de), ShouldBeTrue)
			So(de.Field, ShouldEqual, "id")
		})

		Convey("When the payload is not JSON", func() {
			out, err := endpoint.Decode[realmDTO]([]byte(`<html>`))
			So(out, ShouldBeNil)
			So(errors.Is(err, endpoint.ErrDecode), ShouldBeTrue)
		})

		Convey("When decoding into a map", func() {
			out, err := endpoint.Decode[map[string]any]([]byte(`{"id": 1}`))
			So(err, ShouldBeNil)
			So((*out)["id"], ShouldEqual, float64(1))
		})
	})
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	Convey("Given a transport returning a valid body", t, func() {
		tr := &fakeTransport{body: []byte(`{"id": 3, "name": "thrall", "level": 70}`)}
		req, err := characterEndpoint.Build("Draenor", "Thrall")
		So(err, ShouldBeNil)

		out, err := endpoint.Dispatch(ctx, tr, req)

		Convey("Then the decoded response is returned", func() {
			So(err, ShouldBeNil)
			So(out.Name, ShouldEqual, "thrall")
			So(out.Level, ShouldEqual, 70)
		})

		Convey("Then the transport received path and namespace", func() {
			So(tr.calls.Load(), ShouldEqual, 1)
			So(tr.last.Load(), ShouldEqual, "/profile/wow/character/draenor/thrall|profile")
		})
	})

	Convey("Given a transport reporting a connection failure", t, func() {
		cause := &endpoint.TransportError{Path: "/x", Namespace: namespace.Profile, Cause: errors.New("connection refused")}
		tr := &fakeTransport{err: cause, body: []byte(`{"id": 1, "name": "x"}`)}

		out, err := characterEndpoint.Fetch(ctx, tr, "draenor", "thrall")

		Convey("Then the error is surfaced unmodified and nothing is decoded", func() {
			So(out, ShouldBeNil)
			So(err, ShouldEqual, cause)
			So(errors.Is(err, endpoint.ErrTransport), ShouldBeTrue)
			So(errors.Is(err, endpoint.ErrDecode), ShouldBeFalse)
		})
	})

	Convey("Given a transport returning a status error", t, func() {
		se := &endpoint.StatusError{Path: "/x", StatusCode: 404}
		tr := &fakeTransport{err: se}
		_, err := characterEndpoint.Fetch(ctx, tr, "draenor", "nobody")
		So(errors.Is(err, endpoint.ErrStatus), ShouldBeTrue)
		var got *endpoint.StatusError
		So(errors.As(err, &got), ShouldBeTrue)
		So(got.NotFound(), ShouldBeTrue)
	})

	Convey("Given a body missing a required field", t, func() {
		tr := &fakeTransport{body: []byte(`{"name": "thrall"}`)}
		out, err := characterEndpoint.Fetch(ctx, tr, "draenor", "thrall")
		So(out, ShouldBeNil)
		So(errors.Is(err, endpoint.ErrDecode), ShouldBeTrue)
	})

	Convey("Given a context cancelled while the call is in flight", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		tr := transportFunc(func(context.Context, string, namespace.Namespace) ([]byte, error) {
			cancel()
			return []byte(`{"id": 1, "name": "late"}`), nil
		})

		out, err := characterEndpoint.Fetch(cctx, tr, "draenor", "thrall")

		Convey("Then no partial response is produced", func() {
			So(out, ShouldBeNil)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(errors.Is(err, endpoint.ErrTransport), ShouldBeTrue)
		})
	})

	Convey("Given an already expired context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		tr := &fakeTransport{body: []byte(`{"id": 1, "name": "x"}`)}
		_, err := characterEndpoint.Fetch(cctx, tr, "draenor", "thrall")
		So(errors.Is(err, context.Canceled), ShouldBeTrue)
		So(tr.calls.Load(), ShouldEqual, 0)
	})

	Convey("Given a zero request or nil transport", t, func() {
		_, err := endpoint.Dispatch(ctx, &fakeTransport{}, endpoint.Request[characterDTO]{})
		So(errors.Is(err, endpoint.ErrInvalidRequest), ShouldBeTrue)

		req, _ := characterEndpoint.Build("a", "b")
		_, err = endpoint.Dispatch(ctx, nil, req)
		So(errors.Is(err, endpoint.ErrInvalidRequest), ShouldBeTrue)
	})
}

func TestDispatchConcurrent(t *testing.T) {
	Convey("Given many concurrent dispatches on one transport", t, func() {
		const n = 64
		results := make([]*characterDTO, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = characterEndpoint.Fetch(context.Background(), echoTransport{}, "realm", fmt.Sprintf("Char-%d", i))
			}(i)
		}
		wg.Wait()

		Convey("Then each call receives only its own response", func() {
			for i := 0; i < n; i++ {
				So(errs[i], ShouldBeNil)
				So(results[i].Name, ShouldEqual, fmt.Sprintf("char-%d", i))
				So(results[i].RealmSlug, ShouldEqual, "realm")
			}
		})
	})
}

type transportFunc func(context.Context, string, namespace.Namespace) ([]byte, error)

func (f transportFunc) Get(ctx context.Context, path string, ns namespace.Namespace) ([]byte, error) {
	return f(ctx, path, ns)
}

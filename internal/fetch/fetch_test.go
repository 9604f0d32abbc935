package fetch_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	service "github.com/okian/bnet/internal/app"
	"github.com/okian/bnet/internal/catalog"
	"github.com/okian/bnet/internal/domain/endpoint"
	"github.com/okian/bnet/internal/fetch"
	"github.com/okian/bnet/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type stubLooker struct {
	got []service.Call
	res func(service.Call) service.Result
}

func (s *stubLooker) LookupMany(_ context.Context, calls []service.Call) []service.Result {
	s.got = calls
	out := make([]service.Result, len(calls))
	for i, c := range calls {
		out[i] = s.res(c)
		out[i].Call = c
	}
	return out
}

func realmOrMissing(c service.Call) service.Result {
	if len(c.Params) == 1 && c.Params[0] == "draenor" {
		return service.Result{RequestID: "r-1", Value: map[string]any{"slug": "draenor"}}
	}
	return service.Result{RequestID: "r-2", Err: &endpoint.StatusError{Path: "/x", StatusCode: 404}}
}

func TestParseBatch(t *testing.T) {
	Convey("Given a YAML batch document", t, func() {
		Convey("When it lists calls", func() {
			calls, err := fetch.ParseBatch([]byte(`
calls:
  - endpoint: realm
    params: [draenor]
  - endpoint: character-profile
    params:
      - tarren-mill
      - mitraxis
`))
			So(err, ShouldBeNil)
			So(calls, ShouldHaveLength, 2)
			So(calls[1].Endpoint, ShouldEqual, "character-profile")
			So(calls[1].Params, ShouldResemble, []string{"tarren-mill", "mitraxis"})
		})

		Convey("When it is empty", func() {
			_, err := fetch.ParseBatch([]byte(`calls: []`))
			So(errors.Is(err, fetch.ErrBatchFile), ShouldBeTrue)
		})

		Convey("When a call has no endpoint", func() {
			_, err := fetch.ParseBatch([]byte("calls:\n  - params: [x]\n"))
			So(errors.Is(err, fetch.ErrBatchFile), ShouldBeTrue)
		})

		Convey("When it is not YAML", func() {
			_, err := fetch.ParseBatch([]byte("calls: [unclosed"))
			So(errors.Is(err, fetch.ErrBatchFile), ShouldBeTrue)
		})

		Convey("When the file does not exist", func() {
			_, err := fetch.LoadBatch(filepath.Join(t.TempDir(), "missing.yaml"))
			So(errors.Is(err, fetch.ErrBatchFile), ShouldBeTrue)
		})
	})
}

func TestParamList(t *testing.T) {
	Convey("Given a repeatable -param flag", t, func() {
		var p fetch.ParamList
		So(p.Set("tarren-mill"), ShouldBeNil)
		So(p.Set("mitraxis"), ShouldBeNil)
		So([]string(p), ShouldResemble, []string{"tarren-mill", "mitraxis"})
		So(p.String(), ShouldEqual, "tarren-mill,mitraxis")
	})
}

func TestExecute(t *testing.T) {
	ctx := context.Background()

	Convey("Given a single lookup", t, func() {
		l := &stubLooker{res: realmOrMissing}
		var out bytes.Buffer

		Convey("When it succeeds", func() {
			err := fetch.Execute(ctx, &fetch.Config{Endpoint: "realm", Params: []string{"draenor"}}, l, &out)
			So(err, ShouldBeNil)
			So(l.got, ShouldResemble, []service.Call{{Endpoint: "realm", Params: []string{"draenor"}}})

			var doc map[string]any
			So(json.Unmarshal(out.Bytes(), &doc), ShouldBeNil)
			So(doc["slug"], ShouldEqual, "draenor")
		})

		Convey("When it fails", func() {
			err := fetch.Execute(ctx, &fetch.Config{Endpoint: "realm", Params: []string{"gone"}}, l, &out)
			So(errors.Is(err, endpoint.ErrStatus), ShouldBeTrue)
			So(out.Len(), ShouldEqual, 0)
		})

		Convey("When nothing is requested", func() {
			err := fetch.Execute(ctx, &fetch.Config{}, l, &out)
			So(errors.Is(err, fetch.ErrNoCalls), ShouldBeTrue)
		})
	})

	Convey("Given a batch file with one failing call", t, func() {
		dir := t.TempDir()
		batch := filepath.Join(dir, "calls.yaml")
		So(os.WriteFile(batch, []byte("calls:\n  - endpoint: realm\n    params: [draenor]\n  - endpoint: realm\n    params: [gone]\n"), 0o600), ShouldBeNil)
		outFile := filepath.Join(dir, "out", "realms.json")

		err := fetch.Execute(ctx, &fetch.Config{BatchFile: batch, OutputFile: outFile}, &stubLooker{res: realmOrMissing}, &bytes.Buffer{})

		Convey("Then a partial failure is reported", func() {
			So(errors.Is(err, fetch.ErrPartialFailure), ShouldBeTrue)
		})

		Convey("Then every item is written to the output file", func() {
			data, readErr := os.ReadFile(outFile)
			So(readErr, ShouldBeNil)
			var items []fetch.Item
			So(json.Unmarshal(data, &items), ShouldBeNil)
			So(items, ShouldHaveLength, 2)
			So(items[0].Error, ShouldBeEmpty)
			So(items[0].RequestID, ShouldEqual, "r-1")
			So(items[1].Error, ShouldContainSubstring, "404")
		})
	})
}

func TestList(t *testing.T) {
	Convey("Given the default catalog", t, func() {
		var out bytes.Buffer
		So(fetch.List(&out, catalog.Default().Entries()), ShouldBeNil)
		So(out.String(), ShouldContainSubstring, `"name": "character-profile"`)
		So(out.String(), ShouldContainSubstring, `"namespace": "profile"`)
	})
}

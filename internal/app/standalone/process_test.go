// Package standalone_test exercises the service the way a library caller
// would: without initializing the global logger first.
package standalone_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/srim/internal/app"
	"github.com/okian/srim/internal/collisionlog"
	"github.com/okian/srim/internal/domain/model"
	"github.com/okian/srim/internal/domain/parser"
)

func TestProcessWithoutLoggerInit(t *testing.T) {
	Convey("Given a collision log and no logger.Init call", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		Convey("When the file holds only a header line", func() {
			path := filepath.Join(dir, "header.txt")
			So(os.WriteFile(path, []byte(" Target Layer 1  Si  Depth 100.E+00 A\r\n"), 0o600), ShouldBeNil)

			Convey("Then Process should return no layers instead of panicking", func() {
				var (
					out []model.Layer
					err error
				)
				So(func() { out, err = service.Process(ctx, path) }, ShouldNotPanic)
				So(err, ShouldBeNil)
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When the file holds generated data", func() {
			var buf bytes.Buffer
			_, err := collisionlog.Generate(&buf, collisionlog.Spec{
				Layers: []collisionlog.LayerSpec{
					{Atom: "Si", Events: 5, DepthStart: 1, DepthEnd: 50, EnergyKeV: 1000, SpreadKeV: 10},
				},
				Seed:    2,
				Headers: true,
			})
			So(err, ShouldBeNil)
			path := filepath.Join(dir, "COLLISON.TXT")
			So(os.WriteFile(path, buf.Bytes(), 0o600), ShouldBeNil)

			Convey("Then Process should aggregate it", func() {
				out, err := service.Process(ctx, path)
				So(err, ShouldBeNil)
				So(len(out), ShouldEqual, 1)
				So(out[0].Count, ShouldEqual, 5)
			})
		})

		Convey("When the file is missing", func() {
			_, err := service.Process(ctx, filepath.Join(dir, "missing.txt"))

			Convey("Then the error should be returned, not raised", func() {
				So(errors.Is(err, parser.ErrFileAccess), ShouldBeTrue)
			})
		})
	})
}

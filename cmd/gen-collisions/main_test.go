package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/srim/internal/domain/parser"
	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given the generator command", t, func() {
		var stdout, stderr bytes.Buffer

		convey.Convey("When writing the default log to a file", func() {
			path := filepath.Join(t.TempDir(), "COLLISON.TXT")
			code := run([]string{"-o", path}, &stdout, &stderr)

			convey.Convey("Then the file should parse into every data line", func() {
				convey.So(code, convey.ShouldEqual, 0)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "490 data lines")
				p, err := parser.New()
				convey.So(err, convey.ShouldBeNil)
				f, err := os.Open(path)
				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = f.Close() }()
				records, err := p.Parse(context.Background(), f)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(records), convey.ShouldEqual, 490)
			})
		})

		convey.Convey("When writing to stdout without headers", func() {
			code := run([]string{"-layers", "Si:3:1:3:1000:0", "-headers=false", "-alt", "0"}, &stdout, &stderr)

			convey.Convey("Then only data lines should be written", func() {
				convey.So(code, convey.ShouldEqual, 0)
				convey.So(bytes.Count(stdout.Bytes(), []byte("\r\n")), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the layer list is malformed", func() {
			code := run([]string{"-layers", "Si:1"}, &stdout, &stderr)

			convey.Convey("Then it should exit with a usage error", func() {
				convey.So(code, convey.ShouldEqual, 2)
			})
		})
	})
}

package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/domain/catalog"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given the embedded default catalog", t, func() {
		c, err := catalog.Load(context.Background(), "")

		Convey("Then it loads with titled entries", func() {
			So(err, ShouldBeNil)
			So(c.Len(), ShouldBeGreaterThan, 0)

			m, ok := c.Lookup("Wrist Height and Alignment at the Piano")
			So(ok, ShouldBeTrue)
			So(m.Type, ShouldEqual, "Video")
			So(m.Link, ShouldNotBeEmpty)
		})

		Convey("Then unknown titles miss", func() {
			_, ok := c.Lookup("Made Up Title")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a file override", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "materials.json")
		body := `[{"type":"Book","title":"Only One","description":"d","link":"l","thumbnail":"t"}]`
		So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)

		c, err := catalog.Load(context.Background(), path)

		Convey("Then the override replaces the embedded list", func() {
			So(err, ShouldBeNil)
			So(c.Len(), ShouldEqual, 1)
			_, ok := c.Lookup("Only One")
			So(ok, ShouldBeTrue)
		})
	})

	Convey("Given a missing override path", t, func() {
		_, err := catalog.Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))

		Convey("Then loading fails with the catalog kind", func() {
			So(errors.Is(err, catalog.ErrLoadCatalog), ShouldBeTrue)
		})
	})

	Convey("Given malformed JSON", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "bad.json")
		So(os.WriteFile(path, []byte("{not json"), 0o600), ShouldBeNil)

		_, err := catalog.Load(context.Background(), path)
		So(errors.Is(err, catalog.ErrLoadCatalog), ShouldBeTrue)
	})
}

package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gabriel-accetta/piano-posture-analyzer/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Given no file and no env overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then defaults survive", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.FrameRate, ShouldEqual, 10)
		})
	})

	Convey("Given env overrides", t, func() {
		t.Setenv("PPA_ADDR", ":7070")
		t.Setenv("PPA_FRAME_RATE", "4")
		t.Setenv("PPA_ASSESSMENT_MODEL", "gpt-4o")

		cfg, err := config.Load(context.Background())

		Convey("Then env wins over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.FrameRate, ShouldEqual, 4)
			So(cfg.AssessmentModel, ShouldEqual, "gpt-4o")
		})
	})

	Convey("Given a YAML file plus an env override", t, func() {
		// t.Setenv cleanups run when TestLoad ends, not per Convey block,
		// so PPA_FRAME_RATE from the previous block would leak in here.
		So(os.Unsetenv("PPA_FRAME_RATE"), ShouldBeNil)
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		yaml := "addr: \":6060\"\njpeg_quality: 80\n"
		So(os.WriteFile(path, []byte(yaml), 0o600), ShouldBeNil)
		t.Setenv("PPA_CONFIG", path)
		t.Setenv("PPA_ADDR", ":5050")

		cfg, err := config.Load(context.Background())

		Convey("Then env beats file which beats defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":5050")
			So(cfg.JPEGQuality, ShouldEqual, 80)
			So(cfg.FrameRate, ShouldEqual, 10)
		})
	})

	Convey("Given an invalid frame rate", t, func() {
		t.Setenv("PPA_FRAME_RATE", "-1")

		_, err := config.Load(context.Background())

		Convey("Then loading fails with an invalid-config kind", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given a missing config file", t, func() {
		t.Setenv("PPA_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := config.Load(context.Background())

		Convey("Then loading fails with a load kind", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}

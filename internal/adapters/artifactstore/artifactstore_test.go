package artifactstore_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/dgaops/internal/adapters/artifactstore"
	"github.com/okian/dgaops/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(path, content string) {
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		panic(err)
	}
}

func TestRename(t *testing.T) {
	Convey("Given a native artifact with an extension", t, func() {
		dir := t.TempDir()
		src := filepath.Join(dir, "model.zip")
		writeFile(src, "native")

		Convey("When renaming to a stable base name", func() {
			dst, err := artifactstore.Rename(src, "best_dga_model", false)

			Convey("Then the extension is preserved and the source is gone", func() {
				So(err, ShouldBeNil)
				So(dst, ShouldEqual, filepath.Join(dir, "best_dga_model.zip"))
				data, _ := os.ReadFile(dst)
				So(string(data), ShouldEqual, "native")
				_, statErr := os.Stat(src)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})

		Convey("When the target exists and overwrite is off", func() {
			target := filepath.Join(dir, "best_dga_model.zip")
			writeFile(target, "previous")
			_, err := artifactstore.Rename(src, "best_dga_model", false)

			Convey("Then it fails and both files survive", func() {
				So(errors.Is(err, artifactstore.ErrTargetExists), ShouldBeTrue)
				prev, _ := os.ReadFile(target)
				So(string(prev), ShouldEqual, "previous")
				cur, _ := os.ReadFile(src)
				So(string(cur), ShouldEqual, "native")
			})
		})

		Convey("When the target exists and overwrite is on", func() {
			target := filepath.Join(dir, "best_dga_model.zip")
			writeFile(target, "previous")
			dst, err := artifactstore.Rename(src, "best_dga_model", true)

			Convey("Then the target is replaced", func() {
				So(err, ShouldBeNil)
				data, _ := os.ReadFile(dst)
				So(string(data), ShouldEqual, "native")
			})
		})

		Convey("When the name already matches", func() {
			dst, err := artifactstore.Rename(src, "model", false)

			So(err, ShouldBeNil)
			So(dst, ShouldEqual, src)
		})

		Convey("When the base name is a path", func() {
			_, err := artifactstore.Rename(src, "../escape", false)

			So(errors.Is(err, artifactstore.ErrInvalidName), ShouldBeTrue)
		})

		Convey("When the source is missing", func() {
			_, err := artifactstore.Rename(filepath.Join(dir, "nope.bin"), "best", false)

			So(errors.Is(err, artifactstore.ErrMissingSource), ShouldBeTrue)
		})
	})

	Convey("Given a native artifact without extension", t, func() {
		dir := t.TempDir()
		src := filepath.Join(dir, "GBM_1_AutoML_1_20240101_000000")
		writeFile(src, "native")

		dst, err := artifactstore.Rename(src, "best_dga_model", false)

		So(err, ShouldBeNil)
		So(dst, ShouldEqual, filepath.Join(dir, "best_dga_model"))
	})
}

func TestManifest(t *testing.T) {
	Convey("Given exported artifacts", t, func() {
		dir := t.TempDir()
		native := filepath.Join(dir, "best_dga_model")
		portable := filepath.Join(dir, "GBM_1.zip")
		writeFile(native, "native")
		writeFile(portable, "mojo")
		lb := model.NewLeaderboard("SE_1", "GBM_1")

		Convey("When a manifest is written and read back", func() {
			res := model.ArtifactResult{PortablePath: portable, SourceModelID: "GBM_1", NativePath: native, NativeModelID: "SE_1"}
			m, err := artifactstore.NewManifest(dir, "dga_automl", lb, res)
			So(err, ShouldBeNil)
			path, err := artifactstore.WriteManifest(dir, m)
			So(err, ShouldBeNil)
			got, err := artifactstore.ReadManifest(dir)
			So(err, ShouldBeNil)

			Convey("Then it lists digests and relative paths", func() {
				So(path, ShouldEqual, filepath.Join(dir, artifactstore.ManifestName))
				So(got.RunID, ShouldNotBeEmpty)
				So(got.Leader, ShouldEqual, "SE_1")
				So(got.Candidates, ShouldResemble, []string{"SE_1", "GBM_1"})
				So(got.Native.Path, ShouldEqual, "best_dga_model")
				So(got.Native.Size, ShouldEqual, 6)
				So(got.Native.Digest, ShouldStartWith, "sha256:")
				So(got.Portable, ShouldNotBeNil)
				So(got.Portable.Path, ShouldEqual, "GBM_1.zip")
				So(got.PortableSrc, ShouldEqual, "GBM_1")
			})
		})

		Convey("When nothing was portable", func() {
			res := model.ArtifactResult{NativePath: native, NativeModelID: "SE_1"}
			m, err := artifactstore.NewManifest(dir, "", lb, res)

			So(err, ShouldBeNil)
			So(m.Portable, ShouldBeNil)
		})

		Convey("When the native artifact is missing", func() {
			_, err := artifactstore.NewManifest(dir, "", lb, model.ArtifactResult{NativePath: filepath.Join(dir, "gone")})

			So(err, ShouldNotBeNil)
		})
	})
}

func TestDigestFile(t *testing.T) {
	Convey("Given a known file", t, func() {
		path := filepath.Join(t.TempDir(), "a")
		writeFile(path, "abc")

		digest, size, err := artifactstore.DigestFile(path)

		So(err, ShouldBeNil)
		So(size, ShouldEqual, 3)
		So(digest, ShouldEqual, "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
	})
}

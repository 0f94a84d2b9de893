package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/okian/dgaops/internal/adapters/artifactstore"
	service "github.com/okian/dgaops/internal/app"
	"github.com/okian/dgaops/internal/domain/export"
	"github.com/okian/dgaops/internal/domain/model"
	"github.com/okian/dgaops/internal/domain/playbook"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeModel struct {
	id       string
	portable bool
}

func (m *fakeModel) ID() string { return m.id }

func (m *fakeModel) ExportPortable(_ context.Context, dir string) (string, error) {
	if !m.portable {
		return "", export.ErrPortableUnsupported
	}
	path := filepath.Join(dir, m.id+".zip")
	return path, os.WriteFile(path, []byte("mojo"), 0o600)
}

func (m *fakeModel) SaveNative(_ context.Context, dir string) (string, error) {
	path := filepath.Join(dir, m.id)
	return path, os.WriteFile(path, []byte("native"), 0o600)
}

type fakeRuntime struct {
	mu        sync.Mutex
	ids       []string
	portable  map[string]bool
	pingErr   error
	shutdowns int
}

func (r *fakeRuntime) Ping(context.Context) error { return r.pingErr }

func (r *fakeRuntime) Leaderboard(context.Context, string) (model.Leaderboard, error) {
	return model.NewLeaderboard(r.ids...), nil
}

func (r *fakeRuntime) Resolve(_ context.Context, ref model.ModelRef) (export.Model, error) {
	return &fakeModel{id: ref.ID, portable: r.portable[ref.ID]}, nil
}

func (r *fakeRuntime) Shutdown(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdowns++
	return nil
}

type fakeExplainer struct {
	calls int
	key   string
}

func (e *fakeExplainer) Explain(_ context.Context, _ model.Findings, key string) playbook.Result {
	e.calls++
	e.key = key
	return playbook.Success("1. Block the domain")
}

func TestService_Export(t *testing.T) {
	Convey("Given a runtime whose leader has no portable format", t, func() {
		dir := t.TempDir()
		rt := &fakeRuntime{
			ids:      []string{"SE_1", "GBM_1", "GLM_1"},
			portable: map[string]bool{"GBM_1": true, "GLM_1": true},
		}
		svc := service.New(
			service.WithRuntime(rt),
			service.WithProject("dga_automl"),
			service.WithOutputDir(dir),
			service.WithArtifactName("best_dga_model", false),
			service.WithRuntimeShutdown(true),
		)

		Convey("When exporting", func() {
			report, err := svc.Export(context.Background())

			Convey("Then the portable artifact comes from the first capable fallback", func() {
				So(err, ShouldBeNil)
				So(report.Artifacts.SourceModelID, ShouldEqual, "GBM_1")
				So(report.Artifacts.PortablePath, ShouldEqual, filepath.Join(dir, "GBM_1.zip"))
				So(report.Artifacts.NativeModelID, ShouldEqual, "SE_1")
			})

			Convey("Then the native artifact carries the stable name", func() {
				So(report.Artifacts.NativePath, ShouldEqual, filepath.Join(dir, "best_dga_model"))
				_, statErr := os.Stat(filepath.Join(dir, "SE_1"))
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})

			Convey("Then the manifest matches the report", func() {
				m, readErr := artifactstore.ReadManifest(dir)
				So(readErr, ShouldBeNil)
				So(m.RunID, ShouldEqual, report.RunID)
				So(m.Native.Path, ShouldEqual, "best_dga_model")
				So(m.Portable.Path, ShouldEqual, "GBM_1.zip")
				So(report.ManifestPath, ShouldEqual, filepath.Join(dir, artifactstore.ManifestName))
			})

			Convey("Then the runtime is shut down", func() {
				So(rt.shutdowns, ShouldEqual, 1)
			})
		})

		Convey("When a second export finds the renamed artifact", func() {
			_, err := svc.Export(context.Background())
			So(err, ShouldBeNil)
			_, err = svc.Export(context.Background())

			Convey("Then it refuses to overwrite it", func() {
				So(errors.Is(err, artifactstore.ErrTargetExists), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unreachable runtime", t, func() {
		rt := &fakeRuntime{ids: []string{"SE_1"}, pingErr: errors.New("connection refused")}
		svc := service.New(service.WithRuntime(rt), service.WithOutputDir(t.TempDir()), service.WithRuntimeShutdown(true))

		_, err := svc.Export(context.Background())

		So(errors.Is(err, service.ErrRuntimeUnavailable), ShouldBeTrue)
		So(rt.shutdowns, ShouldEqual, 1)
	})

	Convey("Given an empty leaderboard", t, func() {
		svc := service.New(service.WithRuntime(&fakeRuntime{}), service.WithOutputDir(t.TempDir()))

		_, err := svc.Export(context.Background())

		So(errors.Is(err, service.ErrEmptyLeaderboard), ShouldBeTrue)
	})

	Convey("Given no runtime", t, func() {
		_, err := service.New().Export(context.Background())

		So(errors.Is(err, service.ErrNoRuntime), ShouldBeTrue)
	})

	Convey("Given concurrent exports into one directory", t, func() {
		dir := t.TempDir()
		rt := &fakeRuntime{ids: []string{"GBM_1"}, portable: map[string]bool{"GBM_1": true}}
		svc := service.New(service.WithRuntime(rt), service.WithOutputDir(dir), service.WithArtifactName("", false))

		var wg sync.WaitGroup
		errs := make(chan error, 4)
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Export(context.Background())
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			So(err, ShouldBeNil)
		}
		_, err := artifactstore.ReadManifest(dir)
		So(err, ShouldBeNil)
	})
}

func TestService_Playbook(t *testing.T) {
	Convey("Given a configured playbook client", t, func() {
		ex := &fakeExplainer{}

		Convey("When the key is available", func() {
			svc := service.New(
				service.WithExplainer(ex),
				service.WithKeySource(func() (string, error) { return "secret", nil }),
			)
			res, err := svc.Playbook(context.Background(), playbook.SampleFindings)

			So(err, ShouldBeNil)
			So(res.OK(), ShouldBeTrue)
			So(ex.key, ShouldEqual, "secret")
		})

		Convey("When the key is missing", func() {
			missing := errors.New("GOOGLE_API_KEY is not set")
			svc := service.New(
				service.WithExplainer(ex),
				service.WithKeySource(func() (string, error) { return "", missing }),
			)
			_, err := svc.Playbook(context.Background(), playbook.SampleFindings)

			So(errors.Is(err, missing), ShouldBeTrue)
			So(ex.calls, ShouldEqual, 0)
		})
	})

	Convey("Given no playbook client", t, func() {
		_, err := service.New().Playbook(context.Background(), playbook.SampleFindings)

		So(errors.Is(err, service.ErrNoExplainer), ShouldBeTrue)
	})
}

func TestService_LastReport(t *testing.T) {
	Convey("Given a service before any export", t, func() {
		rt := &fakeRuntime{ids: []string{"SE_1", "GBM_1"}, portable: map[string]bool{"GBM_1": true}}
		svc := service.New(service.WithRuntime(rt), service.WithOutputDir(t.TempDir()))
		ctx := context.Background()

		_, ok := svc.LastReport()
		So(ok, ShouldBeFalse)
		_, err := svc.TopN(ctx, 10)
		So(errors.Is(err, service.ErrNoExport), ShouldBeTrue)

		Convey("When an export completes", func() {
			report, err := svc.Export(ctx)
			So(err, ShouldBeNil)

			Convey("Then its leaderboard is queryable", func() {
				last, ok := svc.LastReport()
				So(ok, ShouldBeTrue)
				So(last.RunID, ShouldEqual, report.RunID)

				top, err := svc.TopN(ctx, 1)
				So(err, ShouldBeNil)
				So(top, ShouldResemble, model.NewLeaderboard("SE_1"))

				ref, err := svc.Rank(ctx, "GBM_1")
				So(err, ShouldBeNil)
				So(ref.Rank, ShouldEqual, 2)

				_, err = svc.Rank(ctx, "XRT_1")
				So(errors.Is(err, service.ErrModelNotFound), ShouldBeTrue)
			})
		})
	})
}

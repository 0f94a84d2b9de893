package playbook_test

import (
	"strings"
	"testing"

	"github.com/okian/dgaops/internal/domain/model"
	"github.com/okian/dgaops/internal/domain/playbook"
	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildPrompt(t *testing.T) {
	Convey("Given findings", t, func() {
		prompt := playbook.BuildPrompt(model.Findings("- **Domain:** `x1y2.info`"))

		Convey("Then the prompt addresses a Tier 1 analyst and asks for 3–4 steps", func() {
			So(prompt, ShouldContainSubstring, "Tier 1 analyst")
			So(prompt, ShouldContainSubstring, "numbered list of 3–4 concise steps")
		})

		Convey("Then the findings follow the heading verbatim", func() {
			So(strings.HasSuffix(prompt, "**Alert Details & AI Explanation:**\n- **Domain:** `x1y2.info`\n"), ShouldBeTrue)
		})
	})

	Convey("Given findings containing the placeholder text", t, func() {
		prompt := playbook.BuildPrompt(model.Findings("{{findings}}"))

		So(strings.Count(prompt, "{{findings}}"), ShouldEqual, 1)
	})
}

func TestResult(t *testing.T) {
	Convey("Given results", t, func() {
		ok := playbook.Success("hello world")
		fail := playbook.Failure(playbook.KindHTTPStatus, 403, "Error %d: %s", 403, `{"error":"denied"}`)

		So(ok.OK(), ShouldBeTrue)
		So(ok.String(), ShouldEqual, "hello world")
		So(ok.Message, ShouldBeEmpty)

		So(fail.OK(), ShouldBeFalse)
		So(fail.Text, ShouldBeEmpty)
		So(fail.String(), ShouldEqual, `Error 403: {"error":"denied"}`)
		So(fail.Kind.String(), ShouldEqual, "http_status")

		Convey("A failure built with KindOK is still a failure", func() {
			r := playbook.Failure(playbook.KindOK, 0, "odd")
			So(r.OK(), ShouldBeFalse)
			So(r.Kind, ShouldEqual, playbook.KindUnknown)
		})
	})
}

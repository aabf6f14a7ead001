// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	tests := []struct {
		id       Id
		wantNil  bool
		contains string
	}{
		{MetadataMissingId, false, "Metadata file not found"},
		{VersionNotFoundId, false, "__version__ = '0.1.0'"},
		{PackageNotFoundId, false, "could not be inferred"},
		{RemoteUnreachableId, false, "GITHUB_TOKEN"},
		{StepFailedId, false, "A release step failed"},
		{ConfigLoadFailedId, false, "pyrelease config dump"},
		{InvalidArchiveId, false, "zip"},
		{Id(9999), true, ""},
	}

	for _, tt := range tests {
		issue := Get(tt.id)
		if tt.wantNil {
			if issue != nil {
				t.Errorf("Get(%d) should return nil", tt.id)
			}
			continue
		}
		if issue == nil {
			t.Fatalf("Get(%d) returned nil", tt.id)
		}
		if issue.Id() != tt.id {
			t.Errorf("Get(%d).Id() = %d", tt.id, issue.Id())
		}
		if !strings.Contains(string(issue.MarkdownMsg()), tt.contains) {
			t.Errorf("Get(%d).MarkdownMsg() should contain %q", tt.id, tt.contains)
		}
	}
}

func TestGet_EveryIssueHasDocs(t *testing.T) {
	for id := MetadataMissingId; id <= InvalidArchiveId; id++ {
		i := Get(id)
		if i == nil {
			t.Fatalf("Get(%d) returned nil", id)
		}
		if len(i.DocLinks()) == 0 {
			t.Errorf("issue %d has no doc links", id)
		}
	}
}

func TestIssue_DocLinksAreCloned(t *testing.T) {
	issue := Get(StepFailedId)
	links := issue.DocLinks()
	original := links[0]
	links[0] = "modified"
	if issue.DocLinks()[0] != original {
		t.Error("DocLinks() should return a clone")
	}
}

func TestIssue_Render(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, _ string) (string, error) {
		return in, nil
	}

	rendered, err := Get(RemoteUnreachableId).Render("")
	if err != nil {
		t.Fatalf("Render() returned error: %v", err)
	}
	if !strings.Contains(rendered, "## See also") || !strings.Contains(rendered, "docs.github.com") {
		t.Errorf("Render() output missing links:\n%s", rendered)
	}
}

package vcsprobe

import (
	"context"
	"errors"
	"testing"

	"github.com/arjunv/headlamp/schema"
	"github.com/stretchr/testify/assert"
)

type fakeClient struct {
	staged, unstaged, lastCommit, branch []string
	err                                  error
}

func (f *fakeClient) Run(ctx context.Context, repoPath string, args ...string) ([]byte, error) {
	return nil, f.err
}

func (f *fakeClient) StagedFiles(ctx context.Context, repoPath string) ([]string, error) {
	return f.staged, f.err
}

func (f *fakeClient) UnstagedFiles(ctx context.Context, repoPath string) ([]string, error) {
	return f.unstaged, f.err
}

func (f *fakeClient) LastCommitFiles(ctx context.Context, repoPath string) ([]string, error) {
	return f.lastCommit, f.err
}

func (f *fakeClient) BranchFiles(ctx context.Context, repoPath string) ([]string, error) {
	return f.branch, f.err
}

func (f *fakeClient) RepoHash(ctx context.Context, repoPath string) (string, error) {
	return "deadbeef", f.err
}

func (f *fakeClient) RepoRoot(ctx context.Context, repoPath string) (string, error) {
	return "/repo", f.err
}

func TestChangedFiles_Staged(t *testing.T) {
	c := &fakeClient{staged: []string{"src/a.go", "src/b.go"}}
	got := ChangedFiles(c, "/repo", schema.ChangedStaged)
	assert.ElementsMatch(t, []string{"/repo/src/a.go", "/repo/src/b.go"}, got)
}

func TestChangedFiles_AllIsUnionOfStagedAndUnstaged(t *testing.T) {
	c := &fakeClient{
		staged:   []string{"src/a.go", "src/shared.go"},
		unstaged: []string{"src/b.go", "src/shared.go"},
	}
	got := ChangedFiles(c, "/repo", schema.ChangedAll)
	assert.ElementsMatch(t, []string{"/repo/src/a.go", "/repo/src/b.go", "/repo/src/shared.go"}, got)
}

func TestChangedFiles_ExcludesVendorAndCoverageDirs(t *testing.T) {
	c := &fakeClient{staged: []string{"vendor/dep/x.go", "coverage/lcov.info", "src/a.go"}}
	got := ChangedFiles(c, "/repo", schema.ChangedStaged)
	assert.Equal(t, []string{"/repo/src/a.go"}, got)
}

func TestChangedFiles_SoftFailsOnAuxError(t *testing.T) {
	c := &fakeClient{err: errors.New("git not found")}
	got := ChangedFiles(c, "/repo", schema.ChangedLastCommit)
	assert.Nil(t, got)
}

func TestChangedFiles_UnknownModeReturnsNil(t *testing.T) {
	c := &fakeClient{}
	got := ChangedFiles(c, "/repo", schema.ChangedMode("bogus"))
	assert.Nil(t, got)
}

func TestChangedFiles_BranchMode(t *testing.T) {
	c := &fakeClient{branch: []string{"src/c.go"}}
	got := ChangedFiles(c, "/repo", schema.ChangedBranch)
	assert.Equal(t, []string{"/repo/src/c.go"}, got)
}

// Package source acquires upstream source trees for recipes.
//
// GitFetcher clones a repository with go-git into a staging directory next
// to the destination and renames it into place only after the clone
// completes, so a failed fetch never leaves a partial tree behind:
//
//	f := source.NewGitFetcher()
//	rev, err := f.Fetch(ctx, source.Spec{URL: "https://github.com/simonbrunel/qtpromise.git"}, dest)
//
// Without a Ref the tip of the default branch is fetched; Revision.Commit
// records the commit that was actually checked out.
package source

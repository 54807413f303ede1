package application

import "github.com/inkpress/inkpress/blog/domain"

// Visibility policy. The requester identity must already be verified at the
// transport boundary (session token subject); an empty string means
// anonymous. Client-asserted identities are never passed in here.

// CanView reports whether the requester may read the post. Published posts
// are readable by anyone, drafts only by their author.
func CanView(requesterID string, post *domain.Post) bool {
	if post.Published {
		return true
	}
	return requesterID != "" && requesterID == post.AuthorID
}

// CanMutate reports whether the requester may update or delete the post.
// Only the author may mutate; an anonymous requester may mutate nothing.
func CanMutate(requesterID string, post *domain.Post) bool {
	return requesterID != "" && requesterID == post.AuthorID
}

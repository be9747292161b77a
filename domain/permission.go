package domain

// CheckAuthor is the single ownership predicate guarding every mutation of an
// authored resource.
func CheckAuthor(requesterID, authorID string) error {
	if requesterID == "" {
		return ErrAuthenticationRequired
	}
	if requesterID != authorID {
		return ErrAuthorizationDenied
	}
	return nil
}

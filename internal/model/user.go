package model

import "time"

// User is the local projection of an identity minted by the external
// authentication collaborator.  The service never handles credentials;
// it only stores the profile fields it needs and trusts the user ID and
// role carried in the access token.
//
// Fields:
//  ID        – primary key identifier, matches the token subject.
//  Email     – contact address for the notification collaborator.
//  FullName  – display name, editable through the profile endpoint.
//  Role      – CUSTOMER or ADMIN, mirrored from the token role claim.
//  Version   – optimistic-lock counter for profile edits.
//  CreatedAt – creation timestamp.
type User struct {
	ID        uint64    // users.id
	Email     string    // users.email
	FullName  string    // users.full_name
	Role      string    // users.role
	Version   uint64    // users.version
	CreatedAt time.Time // users.created_at
}

// UpdateResult reports the outcome of an optimistic-version write.
// Callers branch on the value instead of catching an error: a stale
// version is an expected outcome, not a failure of the operation itself.
type UpdateResult int

const (
	UpdateOK              UpdateResult = iota // the row was updated and its version advanced
	UpdateVersionConflict                     // the expected version was stale; nothing changed
)

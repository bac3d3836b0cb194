package resolver

// Field names a stored text column whose representation must be inferred.
type Field string

const (
	FieldContactSubject      Field = "contact_submissions.subject"
	FieldContactMessage      Field = "contact_submissions.message"
	FieldNotificationTitle   Field = "notifications.title"
	FieldNotificationMessage Field = "notifications.message"
	FieldSubscriberEmail     Field = "newsletter_subscribers.email"
	FieldGalleryDescription  Field = "gallery.description"
	FieldBlogContent         Field = "blogs.content"
	FieldCommentContent      Field = "comments.content"
)

// Policy is the read-path behaviour attached to a field.
type Policy struct {
	// Email fields are used as-is when they contain '@'.
	Email bool
	// BlobCandidate fields may hold a public URL instead of text.
	BlobCandidate bool
}

var policies = map[Field]Policy{
	FieldSubscriberEmail: {Email: true},
	FieldBlogContent:     {BlobCandidate: true},
}

// Policy returns the policy for f. Unknown fields get the zero policy.
func (f Field) Policy() Policy {
	return policies[f]
}

// Fields lists every field known to the resolver.
func Fields() []Field {
	return []Field{
		FieldContactSubject,
		FieldContactMessage,
		FieldNotificationTitle,
		FieldNotificationMessage,
		FieldSubscriberEmail,
		FieldGalleryDescription,
		FieldBlogContent,
		FieldCommentContent,
	}
}

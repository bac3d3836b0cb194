// Package sitecontent provides the storage-tiering layer behind the site's
// content API.
//
// Text entered by visitors and admins is compressed before it is written to
// relational rows, large blog bodies and images are offloaded to object
// storage, and every read path infers which representation a stored string is
// in. Collaborators (relational store, blob store) are expressed as
// interfaces with memory and production implementations under subpackages.
//
// # Representation Strategy
//
// Stored strings carry no type tag. A value is one of:
//
//   - Plain: human-readable text written before compression was introduced
//     or by a call site that does not compress.
//   - CompressedInline: codec output kept in the row.
//   - BlobPointer: a public URL of an object in the configured bucket.
//
// The resolver package decides between these from content shape alone. The
// rules are order-sensitive; see resolver.Resolver.
package sitecontent

// Package har defines the HTTP Archive model used to store recorded traffic
// and its JSON codec.
//
// An archive is a HAR 1.2 shaped document: a top-level "log" object holding
// the format version, the creator and an ordered list of entries. Each entry
// is one request/response exchange. Entry order is significant; playback
// serves entries in archive order.
//
// # Decoding
//
// Decode and Load validate the document against an embedded JSON Schema
// before mapping it onto Go types, so malformed JSON, missing required
// fields and out-of-range numbers (negative sizes, status codes outside
// 100-599) fail with *ArchiveDecodeError. Loading a file that does not exist
// fails with *ArchiveMissingError, whose hint names the record mode that
// captures it.
//
// # Encoding
//
// Encode and Save are deterministic: keys follow struct order, entries
// follow archive order and header lists keep their recorded order, so saving
// the same content twice yields identical bytes.
//
//	a, err := har.Load("testdata/users.har")
//	if err != nil {
//	    return err
//	}
//	a.Log.Entries = append(a.Log.Entries, entry)
//	err = har.Save("testdata/users.har", a)
package har

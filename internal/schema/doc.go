// Package schema loads entity descriptors declared in CUE.
//
// A schema directory holds one CUE package whose top-level "entity" struct
// maps type names to descriptors:
//
//	entity: Student: {
//		fields: {
//			Cource:    {key: true, kind: "int"}
//			Letter:    {key: true, kind: "char"}
//			LocalId:   {key: true, column: "local_id"}
//			FirstName: {column: "first_name"}
//			Nickname:  {ignore: true}
//		}
//	}
//
// Field order follows declaration order. Loaded values are checked against
// the embedded #Entity definition, so misspelled attributes fail with a
// source position.
package schema

// Package por implements a privately-verifiable proof-of-retrievability
// scheme: a file owner can later challenge an untrusted storage server to
// prove it still holds a file, without the server ever seeing the file
// again and without the owner re-reading it.
//
// The construction is a Shacham-Waters private homomorphic linear
// authenticator. The file is split into n chunks of s sectors each; Encode
// folds every sector into a single field element per chunk using two keyed
// PRFs (one masking value per chunk, one weight per sector), producing a
// Tag the server stores next to the file and a State the owner keeps
// secret. A later Challenge samples which chunks to examine and how to
// weight them; Prove combines the sectors of the challenged chunks into a
// short response (with the default check fraction of 1.0 every chunk is
// challenged, so Prove reads the whole file); Verify recomputes the expected
// response from State and checks it against what the server returned.
//
//	owner                               server
//	  |--- Encode(file) -> tag, state --->|  (tag, file stored on server)
//	  |<-------- tag is discarded --------|  (owner keeps only state)
//	  |--- GenChallenge(state) ---------->|
//	  |                    Prove(file, challenge, tag) --->|
//	  |<--------------------- proof -------|
//	  |--- Verify(proof, challenge, state) -- true/false
//
// State travels encrypt-then-MAC (AES-CFB, HMAC-SHA256), so a server that
// never holds k_enc/k_mac learns nothing about the two PRF keys folded
// inside it beyond the chunk count, which rides in the envelope's signed
// but unencrypted region. A Heartbeat built by Public holds neither
// symmetric key and can only Prove; the full Heartbeat returned by New can
// Encode, GenChallenge, and Verify.
//
// All arithmetic here is over the field defined by the Heartbeat's prime
// p. The PRFs ([prf]) derive field elements from AES-CFB keystream bytes
// via rejection sampling rather than modular reduction, avoiding the
// nonuniformity reduction introduces near the top of the range.
package por

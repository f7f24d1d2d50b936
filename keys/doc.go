// Package keys provides secp256k1 identity capabilities for snapshot signing.
//
// Stable:
//   - Private key parsing and the in-memory LocalSigner.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore). It is a local-first
//     convenience and not part of the long-term protocol contract; remote or
//     hardware custody should implement signing.Signer directly (see the
//     grpcsigner subpackage).
package keys

// crypto package provides the low level key handling and JWS functions used to sign and verify
// "save to wallet" links.
//
// Service account keys arrive as PEM (PKCS#8 or PKCS#1) inside the provider's JSON key file; they are
// converted to jwk.Key values so that the signing and verification code only deals with one key type.
//
// See the wallet package for the high level functions - you will not normally need to call these directly.
package crypto

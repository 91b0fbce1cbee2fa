// Package wallet issues Google Wallet event ticket passes.
//
// For a ticket it derives a pass class (one per ticket category) and a pass object (one per ticket),
// makes sure both exist on the wallet provider and returns a signed "save to wallet" link.
//
// # identifiers
//
// Class and object ids are pure functions of the issuer id, the deployment profile and the category id / ticket uuid:
//
//	{issuerId}.{profile}-class-{categoryId}
//	{issuerId}.{profile}-object-{ticketUuid}
//
// so repeated calls for the same ticket always target the same provider resources.
//
// # upsert protocol
//
// Resources are looked up with GET before they are written. A resource that already exists is never updated.
// Missing resources are created with POST, or with PUT when the organization enabled the
// "overwrite previous classes and events" setting. The class is always ensured before the object.
//
// # errors
//
// All errors returned by the Manager are *WalletError values. Use CodeOf to tell a disabled integration
// (ErrCodeFeatureDisabled, not a fault) from provider failures (ErrCodeWalletAPI) or bad key material (ErrCodeCredential).
package wallet

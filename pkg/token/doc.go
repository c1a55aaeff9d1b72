// Package token issues and verifies the two kinds of JWTs the server hands
// out.
//
// Access tokens identify a profile inside one company. They are HS256 JWTs
// signed with the server's signing key and carry:
//
//	sub    profile id
//	cid    company id
//	cslug  company slug
//	login  profile login
//	role   member | moderator | admin | owner
//	iat    issued at
//	exp    expiry
//
// Signed-URL tokens grant anonymous read access to a single storage object.
// They carry cid, bucket, path and exp, and use the "storage" audience so an
// access token can never be replayed as a download link and vice versa.
//
// # Usage
//
//	issuer, err := token.NewIssuer(key, time.Hour)
//	raw, exp, err := issuer.Issue(claims)
//	claims, err := issuer.Verify(raw)
//
// The signing key comes from COMMUNITY_SIGNING_KEY (base64, at least 32
// bytes). See KeyFromEnv.
package token

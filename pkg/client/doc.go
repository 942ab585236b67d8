// Package client is the star notary Go SDK.
//
// # Registering a star
//
// Request a challenge for your wallet address, sign the returned message with
// the wallet (Bitcoin signed-message format), then submit the claim before the
// validation window closes:
//
//	c, _ := client.New("http://localhost:8000")
//	ch, err := c.RequestChallenge(ctx, address)
//	// ... sign ch.Message with the wallet holding address ...
//	block, err := c.SubmitClaim(ctx, client.ClaimRequest{
//	    Address:   address,
//	    Message:   ch.Message,
//	    Signature: signature,
//	    Star:      client.Star{RA: "16h 29m 1.0s", Dec: "-26° 29' 24.9", Story: "Found it"},
//	})
//
// An expired challenge fails with an error matching ErrChallengeExpired; a bad
// signature with ErrSignatureInvalid.
//
// # Reading the chain
//
//	stars, _ := c.StarsByOwner(ctx, address)
//	b, _ := c.BlockByHeight(ctx, 1)   // nil, nil when absent
//	b, err := c.BlockByHash(ctx, hash) // errors.Is(err, client.ErrNotFound)
//	res, _ := c.Validate(ctx)
package client

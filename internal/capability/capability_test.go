package capability

import "testing"

func TestIssuerVerify(t *testing.T) {
	issuer := NewIssuer("listing-secret")

	t.Run("issued token verifies", func(t *testing.T) {
		tok := issuer.Issue()
		if !issuer.Verify(tok) {
			t.Error("issued token should verify")
		}
	})

	t.Run("nil token rejected", func(t *testing.T) {
		if issuer.Verify(nil) {
			t.Error("nil token should not verify")
		}
	})

	t.Run("token from another issuer rejected", func(t *testing.T) {
		other := NewIssuer("listing-secret")
		tok := other.Issue()
		if issuer.Verify(tok) {
			t.Error("foreign token should not verify even with the same secret")
		}
	})
}

func TestIssuerRedeem(t *testing.T) {
	issuer := NewIssuer("listing-secret")
	tok := issuer.Issue()

	t.Run("correct secret redeems issued token", func(t *testing.T) {
		got := issuer.Redeem("listing-secret")
		if got != tok {
			t.Error("redeem should return the issued token")
		}
		if !issuer.Verify(got) {
			t.Error("redeemed token should verify")
		}
	})

	t.Run("wrong secret returns nil", func(t *testing.T) {
		if got := issuer.Redeem("guess"); got != nil {
			t.Error("wrong secret should not redeem a token")
		}
	})

	t.Run("first redemption mints the token", func(t *testing.T) {
		fresh := NewIssuer("s")
		got := fresh.Redeem("s")
		if got == nil {
			t.Fatal("correct secret should redeem a token even before an explicit Issue")
		}
		if !fresh.Verify(got) {
			t.Error("redeemed token should verify")
		}
		if again := fresh.Redeem("s"); again != got {
			t.Error("repeated redemption should return the same token")
		}
	})

	t.Run("wrong secret never mints", func(t *testing.T) {
		fresh := NewIssuer("s")
		if got := fresh.Redeem("guess"); got != nil {
			t.Error("wrong secret should not redeem a token")
		}
	})
}

package util

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCryptoHashString(t *testing.T) {
	h := Sha256([]byte("aurora"))
	s := h.String()
	dec, err := CryptoHashDecodeString(s)
	require.NoError(t, err)
	require.Equal(t, h, dec)
	require.False(t, h.IsZero())
	require.True(t, CryptoHash{}.IsZero())

	_, err = CryptoHashDecodeString("0OIl")
	require.Error(t, err)
	_, err = CryptoHashDecodeBytes([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestCryptoHashJSON(t *testing.T) {
	h := Sha256([]byte{1})
	data, err := json.Marshal(h)
	require.NoError(t, err)
	require.Equal(t, `"`+h.String()+`"`, string(data))

	var actual CryptoHash
	require.NoError(t, json.Unmarshal(data, &actual))
	require.Equal(t, h, actual)

	require.Error(t, json.Unmarshal([]byte(`123`), &actual))
}

func TestParseAccountID(t *testing.T) {
	for _, good := range []string{"aurora", "relay.aurora", "a-b_c.near", "00", "x.y.z"} {
		_, err := ParseAccountID(good)
		require.NoError(t, err, good)
	}
	for _, bad := range []string{"a", "Aurora", ".aurora", "aurora.", "a..b", "a b", "a-.b",
		strings.Repeat("a", MaxAccountIDLen+1)} {
		_, err := ParseAccountID(bad)
		require.Error(t, err, bad)
	}
}

func TestAccountIDRelations(t *testing.T) {
	require.True(t, AccountID("relay.aurora").IsSubAccountOf("aurora"))
	require.True(t, AccountID("a.relay.aurora").IsSubAccountOf("aurora"))
	require.False(t, AccountID("aurora").IsSubAccountOf("aurora"))
	require.False(t, AccountID("xaurora").IsSubAccountOf("aurora"))

	require.True(t, AccountID("98793cd91a3f870fb126f66285808c7e094afcfc4eda8a970f6648cdf0dbd6de").IsImplicit())
	require.False(t, AccountID("aurora").IsImplicit())
}

func TestNEARAmounts(t *testing.T) {
	one, err := ParseNEAR("1")
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000000000", one.String())

	quarter, err := ParseNEAR("0.25")
	require.NoError(t, err)
	require.Equal(t, "250000000000000000000000", quarter.String())
	require.Equal(t, "0.25", FormatNEAR(quarter))
	require.Equal(t, "1", FormatNEAR(one))
	require.Equal(t, "0.000000000000000000000001", FormatNEAR(big.NewInt(1)))
	require.Equal(t, "0", FormatNEAR(nil))

	for _, bad := range []string{"", "abc", "-1", "0.0000000000000000000000001"} {
		_, err := ParseNEAR(bad)
		require.Error(t, err, bad)
	}
}

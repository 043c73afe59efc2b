package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func digestOf(c byte) string { return strings.Repeat(string(c), 64) }

func validChain() CustodyChain {
	received := ExhibitStatusReceived
	return CustodyChain{
		{Sequence: 1, Timestamp: time.Now().UTC(), EventType: CustodyEventReceived, Description: "in", Officer: Officer{Name: "A"}, NewStatus: &received, PrevHash: digestOf('0'), Hash: digestOf('1')},
		{Sequence: 2, Timestamp: time.Now().UTC(), EventType: CustodyEventTransferred, Description: "move", Officer: Officer{Name: "A"}, PrevHash: digestOf('1'), Hash: digestOf('2')},
	}
}

func TestCustodyChainValidate(t *testing.T) {
	require.NoError(t, validChain().Validate())

	c := validChain()
	c[1].Sequence = 3
	require.ErrorContains(t, c.Validate(), "sequence")

	c = validChain()
	c[0].EventType = CustodyEventAssigned
	require.ErrorContains(t, c.Validate(), "first event")

	c = validChain()
	c[1].PrevHash = digestOf('9')
	require.ErrorContains(t, c.Validate(), "does not link")

	c = validChain()
	c[1].Officer.Name = ""
	require.ErrorContains(t, c.Validate(), "officer")

	require.Error(t, CustodyChain{}.Validate())
}

func TestCustodyChainScanIsStrict(t *testing.T) {
	raw, err := validChain().Value()
	require.NoError(t, err)

	var c CustodyChain
	require.NoError(t, c.Scan(raw))
	require.Len(t, c, 2)

	withExtra := strings.Replace(raw.(string), `"sequence":1`, `"sequence":1,"edited_by":"x"`, 1)
	require.Error(t, c.Scan(withExtra))
	require.Error(t, c.Scan(`{"sequence":1}`))
	require.Error(t, c.Scan(nil))
	require.Error(t, c.Scan(`[]`))
}

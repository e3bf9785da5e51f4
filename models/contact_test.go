package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/textpulse/campaign-console/utils"
)

func TestContactIsReachable(t *testing.T) {
	contact := &Contact{Phone: "+33600000001", OptIn: utils.ToPtr(true)}
	assert.True(t, contact.IsReachable())

	optedOut := &Contact{Phone: "+33600000002", OptIn: utils.ToPtr(false)}
	assert.False(t, optedOut.IsReachable())

	noPhone := &Contact{Phone: "", OptIn: utils.ToPtr(true)}
	assert.False(t, noPhone.IsReachable())

	// Nil opt-in counts as not opted in
	unset := &Contact{Phone: "+33600000003"}
	assert.False(t, unset.IsReachable())
}

func TestContactFullName(t *testing.T) {
	contact := &Contact{FirstName: "Claire", LastName: "Martin"}
	assert.Equal(t, "Claire Martin", contact.FullName())
}

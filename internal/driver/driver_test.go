package driver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocatorHelpers(t *testing.T) {
	assert.Equal(t, Locator{By: ByCSS, Value: ".error-message"}, CSS(".error-message"))
	assert.Equal(t, Locator{By: ByID, Value: "password"}, ID("password"))
	assert.Equal(t, Locator{By: ByXPath, Value: "//div"}, XPath("//div"))
	assert.Equal(t, Locator{By: ByClassName, Value: "android.widget.TextView"}, ClassName("android.widget.TextView"))
	assert.Equal(t, "-android uiautomator", string(UIAutomator("x").By))
	assert.Equal(t, "accessibility id", string(AccessibilityID("x").By))
	assert.Equal(t, "id=login-submit", ID("login-submit").String())
}

func TestCSSFor(t *testing.T) {
	tests := []struct {
		name    string
		loc     Locator
		want    string
		wantErr bool
	}{
		{name: "css passthrough", loc: CSS("div.tile"), want: "div.tile"},
		{name: "id attribute", loc: ID("username-uid1"), want: `[id="username-uid1"]`},
		{name: "id with quote", loc: ID(`a"b`), want: `[id="a\"b"]`},
		{name: "class", loc: ClassName("error-message"), want: ".error-message"},
		{name: "uiautomator unsupported", loc: UIAutomator(`new UiSelector()`), wantErr: true},
		{name: "accessibility unsupported", loc: AccessibilityID("login"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cssFor(tt.loc)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedLocator))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

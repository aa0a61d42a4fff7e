package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSString(t *testing.T) {
	assert.Equal(t, `"goldmSelect"`, jsString("goldmSelect"))
	assert.Equal(t, `"a\"b"`, jsString(`a"b`))
}

const chainPage = `<!doctype html><html><body>
<a id="goldmChain" href="#">Commodity</a>
<select id="goldmSelect"><option value="">Select</option><option value="SILVER">SILVER</option></select>
<select id="goldmExpirySelect"><option value="">Select</option><option value="26-Mar-2026">26-Mar-2026</option></select>
<table id="optionChainTable-goldm">
<tr><th>CALLS</th><th>PUTS</th></tr>
<tr>%s</tr>
</table></body></html>`

func chromePath(t *testing.T) string {
	t.Helper()
	if p := os.Getenv("CHROME_PATH"); p != "" {
		return p
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	t.Skip("no Chrome binary available")
	return ""
}

func TestDriver_AgainstLocalPage(t *testing.T) {
	path := chromePath(t)

	cells := ""
	for i := 0; i < 21; i++ {
		v := ""
		if i == 10 {
			v = "112,250.00"
		}
		cells += fmt.Sprintf("<td>%s</td>", v)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, chainPage, cells)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	d, err := New(ctx, Config{Headless: true, ExecPath: path})
	require.NoError(t, err)
	defer d.Dispose()

	require.NoError(t, d.Navigate(ctx, srv.URL))
	require.NoError(t, d.Click(ctx, "#goldmChain"))
	require.NoError(t, d.SelectOption(ctx, "goldmSelect", "SILVER"))
	assert.Error(t, d.SelectOption(ctx, "goldmSelect", "GOLD"))

	opts, err := d.Options(ctx, "goldmExpirySelect")
	require.NoError(t, err)
	assert.Equal(t, []string{"", "26-Mar-2026"}, opts)

	ok, err := d.WaitForPresence(ctx, "table", 2*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.WaitForPresence(ctx, "#missing", 200*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	rows, err := d.ExtractRows(ctx, "#optionChainTable-goldm")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0])
	assert.Equal(t, "112,250.00", rows[1][10])

	require.NoError(t, d.Dispose())
	require.NoError(t, d.Dispose())
}

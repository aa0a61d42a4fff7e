package browser

// Page scripts return {ok, data, error}. Arguments are JSON-encoded strings.

const selectScript = `(function(id, value) {
	const el = document.getElementById(id);
	if (!el) return {ok: false, error: "element " + id + " not found"};
	const opt = Array.from(el.options).find(o => o.value === value);
	if (!opt) return {ok: false, error: "option " + value + " not found in " + id};
	el.value = value;
	el.dispatchEvent(new Event("change", {bubbles: true}));
	return {ok: true};
})(%s, %s)`

const optionsScript = `(function(id) {
	const el = document.getElementById(id);
	if (!el) return {ok: false, error: "element " + id + " not found"};
	return {ok: true, data: Array.from(el.options).map(o => o.value)};
})(%s)`

const extractScript = `(function(sel) {
	const table = document.querySelector(sel);
	if (!table) return {ok: false, error: "table " + sel + " not found"};
	const rows = Array.from(table.querySelectorAll("tr")).map(tr =>
		Array.from(tr.querySelectorAll("td")).map(td => (td.innerText || "").trim()));
	return {ok: true, data: rows};
})(%s)`

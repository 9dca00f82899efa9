package pipeline

import "testing"

func TestParseEmailHTMLTable(t *testing.T) {
	html := `<table>
<tr><th>Code</th><th>Description</th><th>Qty</th><th>Price</th></tr>
<tr><td>B15</td><td>Base cabinet</td><td>2</td><td>$100.00</td></tr>
<tr><td>W3030</td><td>Wall cabinet</td><td>1</td><td></td></tr>
</table>`
	items := parseEmailHTMLTable(html)
	if len(items) != 2 {
		t.Fatalf("len=%d", len(items))
	}
	if items[0].Item.OriginalCode != "B15" || items[0].Item.Quantity != 2 {
		t.Fatalf("first: %+v", items[0].Item)
	}
	if items[0].Item.ExtractedPrice != 100 {
		t.Fatalf("price = %v", items[0].Item.ExtractedPrice)
	}
	if items[0].Item.Description != "Base cabinet" {
		t.Fatalf("description = %q", items[0].Item.Description)
	}
	if items[1].Item.OriginalCode != "W3030" || items[1].Item.ExtractedPrice != 0 {
		t.Fatalf("second: %+v", items[1].Item)
	}
}

func TestParseEmailHTMLTableHeaderless(t *testing.T) {
	html := `<table>
<tr><td>B15</td><td>2</td></tr>
<tr><td>W3030</td><td>1</td></tr>
</table>`
	items := parseEmailHTMLTable(html)
	if len(items) != 2 {
		t.Fatalf("len=%d", len(items))
	}
	if items[0].Item.OriginalCode != "B15" {
		t.Fatalf("first code = %q", items[0].Item.OriginalCode)
	}
}

func TestParseEmailHTMLTableSkipsNonOrderRows(t *testing.T) {
	html := `<table>
<tr><th>Code</th><th>Qty</th></tr>
<tr><td>Subtotal</td><td></td></tr>
</table>`
	if items := parseEmailHTMLTable(html); len(items) != 0 {
		t.Fatalf("len=%d", len(items))
	}
}

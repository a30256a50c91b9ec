package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akciovadasz/backend/internal/model"
	"github.com/akciovadasz/backend/pkg/datetime"
)

// DealCount is how many products a generated catalog asks for.
const DealCount = 40

// SuggestionCount is how many search suggestions are requested.
const SuggestionCount = 5

func storeNames() []string {
	stores := model.AllStores()
	names := make([]string, len(stores))
	for i, s := range stores {
		names[i] = string(s)
	}
	return names
}

func dealPrompt(q model.FetchQuery, today datetime.Date) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Generálj egy listát %d kitalált, de valósághű akciós termékről a következő magyarországi üzletláncokból: %s. ",
		DealCount, strings.Join(storeNames(), ", "))
	sb.WriteString("A termékek legyenek változatosak. ")
	fmt.Fprintf(&sb, "Minden termékhez adj meg egy kategóriát a következő listából: %s. ", strings.Join(model.Categories, ", "))
	sb.WriteString("Az árak Forintban legyenek. ")
	sb.WriteString("A kép URL-hez használd a 'https://source.unsplash.com/400x400/?{termek_neve_angolul}' formátumot, ")
	sb.WriteString("például 'csirkemell' esetén '?chicken-breast', 'narancslé' esetén '?orange-juice'. ")
	fmt.Fprintf(&sb, "A mai dátum %s. Az akciók érvényessége a mai naptól számított 3-10 napon belül járjon le, YYYY-MM-DD formátumban.", today)

	if q.Location != nil {
		fmt.Fprintf(&sb, " A felhasználó jelenlegi pozíciója: szélesség %g, hosszúság %g. ", q.Location.Latitude, q.Location.Longitude)
		sb.WriteString("Vedd figyelembe ezt a helyzetet, és olyan ajánlatokat preferálj, amelyek relevánsak lehetnek ezen a környéken.")
	}

	if term := strings.TrimSpace(q.SearchTerm); term != "" {
		fmt.Fprintf(&sb, " A felhasználó a következőre keresett rá: %q. ", term)
		sb.WriteString("A generált termékek legyenek relevánsak erre a keresésre, és a találati lista elsősorban ezeket tartalmazza.")
	}

	sb.WriteString(" A válasz JSON formátumú legyen.")
	return sb.String()
}

func suggestionPrompt(query string) string {
	return fmt.Sprintf("A felhasználó termékeket keres egy magyar szupermarket-alkalmazásban. "+
		"A jelenlegi keresési kifejezése: %q. Generálj %d rövid, releváns keresési javaslatot. "+
		"A javaslatok lehetnek terméknevek, kategóriák vagy kapcsolódó kifejezések. "+
		`A válasz kizárólag egy JSON string tömb legyen. Például: ["tej", "friss pékáru", "csokoládé", "felvágott", "mosószer"].`,
		query, SuggestionCount)
}

// productContext is the trimmed product view sent to the assistant.
type productContext struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Store     model.Store `json:"store"`
	Category  string      `json:"category"`
	SalePrice float64     `json:"salePrice"`
	Unit      string      `json:"unit"`
}

func assistantPrompt(query string, products []model.Product) (string, error) {
	items := make([]productContext, len(products))
	for i, p := range products {
		items[i] = productContext{
			ID:        p.ID,
			Name:      p.Name,
			Store:     p.Store,
			Category:  p.Category,
			SalePrice: p.SalePrice.InexactFloat64(),
			Unit:      p.Unit,
		}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshaling product context: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Te vagy az 'Akcióvadász AI', egy segítőkész és barátságos vásárlási asszisztens egy magyar szupermarket-akciós alkalmazásban. ")
	sb.WriteString("A célod, hogy segíts a felhasználóknak megtalálni a legjobb akciókat, ételeket tervezni és pénzt spórolni a jelenleg elérhető akciós termékek alapján. ")
	sb.WriteString("A válaszodat magyarul add meg.\n\n")
	sb.WriteString("Itt van az összes jelenleg akciós termék listája JSON formátumban. Csak ezeket a termékeket használd a felhasználó kérdésének megválaszolásához:\n")
	sb.Write(data)
	fmt.Fprintf(&sb, "\n\nA felhasználó kérése a következő: %q\n\n", query)
	sb.WriteString(`A válaszodnak JSON formátumúnak kell lennie, két kulccsal: "responseText" és "relevantProductIds".` + "\n")
	sb.WriteString("- responseText: barátságos, segítőkész szöveges válasz magyarul. Ha termékeket javasolsz, említsd meg őket név szerint.\n")
	sb.WriteString(`- relevantProductIds: a listából származó, a válaszhoz leginkább kapcsolódó termékek "id"-jai. Ha egyetlen termék sem releváns, adj vissza üres tömböt.`)
	return sb.String(), nil
}

// Response schemas, in the OpenAPI subset accepted by Gemini.

func productSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"id":                 map[string]any{"type": "STRING", "description": "Egyedi azonosító"},
			"name":               map[string]any{"type": "STRING", "description": "A termék neve"},
			"store":              map[string]any{"type": "STRING", "enum": storeNames(), "description": "Az üzletlánc neve"},
			"category":           map[string]any{"type": "STRING", "description": "A termék kategóriája a megadott listából."},
			"originalPrice":      map[string]any{"type": "NUMBER", "description": "Eredeti ár Forintban"},
			"salePrice":          map[string]any{"type": "NUMBER", "description": "Akciós ár Forintban"},
			"discountPercentage": map[string]any{"type": "INTEGER", "description": "A kedvezmény százalékos mértéke"},
			"validUntil":         map[string]any{"type": "STRING", "description": "Az akció érvényességének vége, YYYY-MM-DD formátum."},
			"imageUrl":           map[string]any{"type": "STRING", "description": "URL a termék képéhez"},
			"unit":               map[string]any{"type": "STRING", "description": "Mértékegység (pl. kg, l, db)"},
		},
		"required": []string{
			"id", "name", "store", "category", "originalPrice", "salePrice",
			"discountPercentage", "validUntil", "imageUrl", "unit",
		},
	}
}

func dealSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"products": map[string]any{"type": "ARRAY", "items": productSchema()},
		},
		"required": []string{"products"},
	}
}

func suggestionSchema() map[string]any {
	return map[string]any{
		"type":  "ARRAY",
		"items": map[string]any{"type": "STRING"},
	}
}

func assistantSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"responseText": map[string]any{
				"type":        "STRING",
				"description": "A szöveges, barátságos válasz a felhasználónak.",
			},
			"relevantProductIds": map[string]any{
				"type":        "ARRAY",
				"items":       map[string]any{"type": "STRING"},
				"description": "A releváns termékek azonosítóinak listája.",
			},
		},
		"required": []string{"responseText", "relevantProductIds"},
	}
}

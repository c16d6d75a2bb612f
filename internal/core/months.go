package core

// Bulgarian month names as they appear in the household spreadsheets.
var (
	MonthNames = map[int]string{
		1:  "Януари",
		2:  "Февруари",
		3:  "Март",
		4:  "Април",
		5:  "Май",
		6:  "Юни",
		7:  "Юли",
		8:  "Август",
		9:  "Септември",
		10: "Октомври",
		11: "Ноември",
		12: "Декември",
	}

	MonthNamesShort = map[int]string{
		1:  "Яну",
		2:  "Фев",
		3:  "Мар",
		4:  "Апр",
		5:  "Май",
		6:  "Юни",
		7:  "Юли",
		8:  "Авг",
		9:  "Сеп",
		10: "Окт",
		11: "Ное",
		12: "Дек",
	}

	// MonthNumbers is the inverse of MonthNames.
	MonthNumbers = func() map[string]int {
		m := make(map[string]int, len(MonthNames))
		for n, name := range MonthNames {
			m[name] = n
		}
		return m
	}()
)

// MonthName returns the full month name, or "" for a month outside 1..12.
func MonthName(month int) string {
	return MonthNames[month]
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// Output форматирует результаты команд планировщика.
//
// Сессии идут в stdout — таблицей по умолчанию или JSON с флагом
// --json; служебные сообщения в stderr, чтобы табличный и JSON
// вывод можно было безопасно передавать в pipe.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Sessions выводит список сессий.
func (o *Output) Sessions(sessions []SessionResponse) {
	if o.jsonMode {
		o.printJSON(sessions)
		return
	}
	o.sessionTable(sessions)
}

// Session выводит одну сессию.
func (o *Output) Session(s *SessionResponse) {
	if o.jsonMode {
		o.printJSON(s)
		return
	}
	o.sessionTable([]SessionResponse{*s})
}

// sessionTable печатает сессии таблицей через tabwriter.
func (o *Output) sessionTable(sessions []SessionResponse) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tUSER\tCOURSE\tTITLE\tSTART\tEND\tSTATUS")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			s.ID, s.UserID, s.CourseID, s.Title, s.StartTime, s.EndTime, statusLabel(s.Status))
	}

	tw.Flush()
}

// statusLabel — человекочитаемый статус для таблицы.
// В JSON режиме статус отдаётся как пришёл из API.
func statusLabel(status string) string {
	switch status {
	case "PLANNED":
		return "planned"
	case "COMPLETED":
		return "done"
	default:
		return strings.ToLower(status)
	}
}

// printJSON выводит данные в формате JSON с отступами.
func (o *Output) printJSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

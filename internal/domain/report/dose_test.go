package report

import "testing"

func TestTextToFraction(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1/2", 0.5},
		{"1 1/4", 1.25},
		{"0", 0},
		{"", 0},
		{"garbage", 0},
		{"1.5", 1.5},
		{"0,5", 0.5},
		{"  3/4  ", 0.75},
		{"2", 2},
		{"1  1/2", 1.5},
		{"sin dosis", 0},
		{"1/0", 0},
		{"x 1/2", 0},
	}
	for _, tc := range cases {
		if got := TextToFraction(tc.in); got != tc.want {
			t.Errorf("TextToFraction(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestWeeklyDoseMg_AllHalves(t *testing.T) {
	cal := DoseCalendar{
		Lunes: "1/2", Martes: "1/2", Miercoles: "1/2", Jueves: "1/2",
		Viernes: "1/2", Sabado: "1/2", Domingo: "1/2",
	}
	if got := WeeklyDoseMg(cal, 4); got != 14.0 {
		t.Errorf("WeeklyDoseMg = %v, want 14.0", got)
	}
}

func TestWeeklyDoseMg_MalformedDayDegradesToZero(t *testing.T) {
	cal := DoseCalendar{
		Lunes: "1", Martes: "???", Miercoles: "1", Jueves: "1",
		Viernes: "1", Sabado: "1", Domingo: "1",
	}
	if got := WeeklyDoseMg(cal, 4); got != 24.0 {
		t.Errorf("WeeklyDoseMg = %v, want 24.0", got)
	}
}

func TestDoseCalendar_Complete(t *testing.T) {
	full := DoseCalendar{
		Lunes: "1", Martes: "1", Miercoles: "1", Jueves: "1",
		Viernes: "1", Sabado: "1", Domingo: "1",
	}
	if !full.Complete() {
		t.Error("expected complete calendar")
	}

	missing := full
	missing.Jueves = "   "
	if missing.Complete() {
		t.Error("expected blank day to fail completeness")
	}
}

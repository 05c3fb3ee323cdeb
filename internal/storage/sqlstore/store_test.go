package sqlstore

import "testing"

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   string
		want    string
	}{
		{
			name:    "question marks unchanged",
			dialect: QuestionMarks,
			query:   "SELECT 1 FROM expenses WHERE id = ? AND slug = ?",
			want:    "SELECT 1 FROM expenses WHERE id = ? AND slug = ?",
		},
		{
			name:    "dollar numbers",
			dialect: DollarNumbers,
			query:   "SELECT 1 FROM expenses WHERE id = ? AND slug = ?",
			want:    "SELECT 1 FROM expenses WHERE id = $1 AND slug = $2",
		},
		{
			name:    "no placeholders",
			dialect: DollarNumbers,
			query:   "DELETE FROM items",
			want:    "DELETE FROM items",
		},
		{
			name:    "ten or more placeholders",
			dialect: DollarNumbers,
			query:   "VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			want:    "VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Store{dialect: tt.dialect}
			if got := s.rebind(tt.query); got != tt.want {
				t.Errorf("rebind() = %q, want %q", got, tt.want)
			}
		})
	}
}

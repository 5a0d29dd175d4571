package model

// All lists every model in dependency order for schema migration.
func All() []any {
	return []any{
		&UserModel{},
		&BeatModel{},
		&RatingModel{},
		&TransactionModel{},
		&CommentModel{},
	}
}

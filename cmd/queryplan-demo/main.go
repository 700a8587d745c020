package main

import (
	"log"
	"os"

	sq "github.com/Masterminds/squirrel"
	"github.com/sirupsen/logrus"

	"github.com/relquery/queryplan/queryplan"
	"github.com/relquery/queryplan/queryplan/internal/config"
)

func demoSchema() *queryplan.Schema {
	schema := queryplan.NewSchema()

	schema.AddCollection("posts", "posts").
		AddField("title", "title", queryplan.FieldString).
		AddField("body", "body", queryplan.FieldString).
		AddField("createdAt", "created_at", queryplan.FieldDate).
		AddRelation("author", queryplan.KindM2O, "authors", "author_id", "id").
		AddRelation("comments", queryplan.KindO2M, "comments", "id", "post_id")

	schema.AddCollection("authors", "authors").
		AddField("name", "name", queryplan.FieldString).
		AddField("country", "country", queryplan.FieldString)

	schema.AddCollection("comments", "comments").
		AddField("body", "body", queryplan.FieldString).
		AddField("flagged", "flagged", queryplan.FieldBool)

	return schema
}

func main() {
	dir, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		log.Fatal(err)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.ResolveLogLevel())
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)

	schema := demoSchema()

	q := queryplan.Query{
		Filter: queryplan.And(
			queryplan.Pred("author.country", "_eq", "NZ"),
			queryplan.Pred("comments.flagged", "_eq", true),
		),
		Sort:       []string{"-createdAt", "author.name"},
		SearchTerm: "launch",
	}
	limit := uint64(25)
	page := uint64(2)
	q.Limit = &limit
	q.Page = &page

	sb := queryplan.NewSquirrelAdapter(sq.Select("posts.*").From("posts AS posts"))

	err = queryplan.Compile(sb, "posts", q, schema,
		queryplan.WithLogger(logger),
		queryplan.WithMaxFilterDepth(cfg.MaxFilterDepth),
		queryplan.WithAliasLength(cfg.AliasLength),
	)
	if err != nil {
		log.Fatal(err)
	}

	sqlStr, args, err := sb.SB.ToSql()
	if err != nil {
		log.Fatal(err)
	}

	log.Println("--- compiled query ---")
	log.Println(sqlStr)
	log.Println("args:", args)
}

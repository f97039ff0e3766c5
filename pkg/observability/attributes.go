package observability

import "go.opentelemetry.io/otel/attribute"

const (
	AttrOperation  = attribute.Key("congress.operation")
	AttrCollection = attribute.Key("congress.collection")
	AttrPackage    = attribute.Key("congress.package")
	AttrSitemap    = attribute.Key("congress.sitemap")
	AttrBillID     = attribute.Key("congress.bill_id")
	AttrVoteID     = attribute.Key("congress.vote_id")
	AttrTask       = attribute.Key("congress.task")
)

func Collection(c string) attribute.KeyValue { return AttrCollection.String(c) }
func Package(p string) attribute.KeyValue    { return AttrPackage.String(p) }
func Sitemap(u string) attribute.KeyValue    { return AttrSitemap.String(u) }
func BillID(id string) attribute.KeyValue    { return AttrBillID.String(id) }
func VoteID(id string) attribute.KeyValue    { return AttrVoteID.String(id) }
func Task(t string) attribute.KeyValue       { return AttrTask.String(t) }

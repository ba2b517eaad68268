package apifeatures

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestBuild_FullExample(t *testing.T) {
	params := url.Values{
		"difficulty":    {"easy"},
		"duration[gte]": {"5"},
		"sort":          {"-price,name"},
		"fields":        {"name,price"},
		"page":          {"2"},
		"limit":         {"10"},
	}

	got := Build(params)
	want := Spec{
		Filter: bson.D{
			{Key: "difficulty", Value: "easy"},
			{Key: "duration", Value: bson.D{{Key: "$gte", Value: int64(5)}}},
		},
		Sort:       bson.D{{Key: "price", Value: -1}, {Key: "name", Value: 1}},
		Projection: bson.D{{Key: "name", Value: 1}, {Key: "price", Value: 1}},
		Page:       2,
		Limit:      10,
		Skip:       10,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_Empty(t *testing.T) {
	got := Build(url.Values{})
	want := Spec{
		Filter:     bson.D{},
		Sort:       bson.D{{Key: "createdAt", Value: -1}},
		Projection: bson.D{{Key: "__v", Value: 0}},
		Page:       1,
		Limit:      100,
		Skip:       0,
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter(t *testing.T) {
	b := NewBuilder(0, "difficulty", "price")

	tests := []struct {
		name   string
		params url.Values
		want   bson.D
	}{
		{
			name:   "reserved keys dropped",
			params: url.Values{"page": {"1"}, "sort": {"x"}, "limit": {"2"}, "fields": {"a"}},
			want:   bson.D{},
		},
		{
			name:   "operators merged per field",
			params: url.Values{"price[lt]": {"1000"}, "price[gte]": {"99.5"}},
			want: bson.D{{Key: "price", Value: bson.D{
				{Key: "$gte", Value: 99.5},
				{Key: "$lt", Value: int64(1000)},
			}}},
		},
		{
			name:   "unknown suffix passes through",
			params: url.Values{"name[regex]": {"forest"}},
			want:   bson.D{{Key: "name", Value: bson.D{{Key: "regex", Value: "forest"}}}},
		},
		{
			name:   "operator injection dropped",
			params: url.Values{"$where": {"1"}, "email[$ne]": {"x"}, "role": {"admin"}},
			want:   bson.D{{Key: "role", Value: "admin"}},
		},
		{
			name:   "booleans coerced",
			params: url.Values{"secretTour": {"false"}},
			want:   bson.D{{Key: "secretTour", Value: false}},
		},
		{
			name:   "repeated whitelisted field becomes $in",
			params: url.Values{"difficulty": {"easy", "medium"}},
			want:   bson.D{{Key: "difficulty", Value: bson.D{{Key: "$in", Value: bson.A{"easy", "medium"}}}}},
		},
		{
			name:   "repeated other field keeps last value",
			params: url.Values{"name": {"a", "b"}},
			want:   bson.D{{Key: "name", Value: "b"}},
		},
		{
			name:   "hex on a plain field stays a string",
			params: url.Values{"summary": {"5c88fa8cf4afda39709c2955"}},
			want:   bson.D{{Key: "summary", Value: "5c88fa8cf4afda39709c2955"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.Filter(Spec{}, tt.params).Filter
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("Filter() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSort(t *testing.T) {
	b := &Builder{}

	got := b.Sort(Spec{}, url.Values{"sort": {"price", "-ratingsAverage, price,,$natural"}})
	assert.Equal(t, bson.D{{Key: "ratingsAverage", Value: -1}, {Key: "price", Value: 1}}, got.Sort)

	got = b.Sort(Spec{}, url.Values{"sort": {" , "}})
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, got.Sort)
}

func TestLimitFields(t *testing.T) {
	b := &Builder{}

	got := b.LimitFields(Spec{}, url.Values{"fields": {"-description,-images"}})
	assert.Equal(t, bson.D{{Key: "description", Value: 0}, {Key: "images", Value: 0}}, got.Projection)

	got = b.LimitFields(Spec{}, url.Values{"fields": {"name,-description"}})
	assert.Equal(t, bson.D{{Key: "name", Value: 1}}, got.Projection)
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		maxLimit  int
		params    url.Values
		wantPage  int
		wantLimit int
		wantSkip  int64
	}{
		{"defaults", 0, url.Values{}, 1, 100, 0},
		{"non numeric", 0, url.Values{"page": {"abc"}, "limit": {"x"}}, 1, 100, 0},
		{"non positive", 0, url.Values{"page": {"0"}, "limit": {"-5"}}, 1, 100, 0},
		{"third page", 0, url.Values{"page": {"3"}, "limit": {"20"}}, 3, 20, 40},
		{"capped", 50, url.Values{"page": {"2"}, "limit": {"500"}}, 2, 50, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&Builder{MaxLimit: tt.maxLimit}).Paginate(Spec{}, tt.params)
			assert.Equal(t, tt.wantPage, got.Page)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantSkip, got.Skip)
		})
	}
}

func TestPipeline_StepsAreIndependent(t *testing.T) {
	b := &Builder{}
	params := url.Values{"sort": {"name"}, "difficulty": {"easy"}}

	onlySort := Pipeline(params, b.Sort)
	assert.Empty(t, onlySort.Filter)
	assert.Equal(t, bson.D{{Key: "name", Value: 1}}, onlySort.Sort)

	again := Pipeline(params, b.Filter, b.Sort)
	assert.Equal(t, again, Pipeline(params, b.Filter, b.Sort))
}

func TestFilter_CastsReferenceIDs(t *testing.T) {
	tourID, err := bson.ObjectIDFromHex("5c88fa8cf4afda39709c2955")
	require.NoError(t, err)
	userID, err := bson.ObjectIDFromHex("5c8a1d5b0190b214360dc057")
	require.NoError(t, err)
	guideA, err := bson.ObjectIDFromHex("5c8a22c62f8fb814b56fa18b")
	require.NoError(t, err)
	guideB, err := bson.ObjectIDFromHex("111111111111111111111111")
	require.NoError(t, err)

	b := NewBuilder(0, "guides")
	got := b.Filter(Spec{}, url.Values{
		"tour":   {tourID.Hex()},
		"user":   {userID.Hex()},
		"guides": {guideA.Hex(), guideB.Hex()},
		"name":   {"5c88fa8cf4afda39709c2955"},
		"_id":    {"not-an-id"},
	}).Filter

	assert.Equal(t, bson.D{
		{Key: "_id", Value: "not-an-id"},
		{Key: "guides", Value: bson.D{{Key: "$in", Value: bson.A{guideA, guideB}}}},
		{Key: "name", Value: "5c88fa8cf4afda39709c2955"},
		{Key: "tour", Value: tourID},
		{Key: "user", Value: userID},
	}, got)
}

func TestSpec_Where(t *testing.T) {
	spec := Build(url.Values{"tour": {"client-value"}, "rating": {"5"}})
	spec = spec.Where("tour", "fixed")

	assert.Equal(t, bson.D{
		{Key: "rating", Value: int64(5)},
		{Key: "tour", Value: "fixed"},
	}, spec.Filter)
}

func TestSpec_Hide(t *testing.T) {
	spec := Build(url.Values{
		"password": {"x"},
		"name":     {"jonas"},
		"sort":     {"password"},
		"fields":   {"name,password"},
	}).Hide("password", "passwordResetToken")

	assert.Equal(t, bson.D{{Key: "name", Value: "jonas"}}, spec.Filter)
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, spec.Sort)
	assert.Equal(t, bson.D{{Key: "name", Value: 1}}, spec.Projection)

	spec = Build(url.Values{}).Hide("password")
	assert.Equal(t, bson.D{{Key: "__v", Value: 0}, {Key: "password", Value: 0}}, spec.Projection)

	spec = Build(url.Values{"fields": {"password"}}).Hide("password")
	assert.Equal(t, bson.D{{Key: "password", Value: 0}}, spec.Projection)
}

func TestSpec_FindOptions(t *testing.T) {
	opts := Build(url.Values{"page": {"2"}, "limit": {"5"}}).FindOptions()
	assert.NotNil(t, opts)
	assert.Len(t, opts.Opts, 4)
}

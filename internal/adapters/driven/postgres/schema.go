package postgres

// backfillSearchTokensSQL is the one-shot pass InitSchema runs after
// installing the trigger, so rows inserted before the trigger existed
// (or during a schema upgrade) still get a search_tokens value. The
// trigger itself only fires on insert/update.
const backfillSearchTokensSQL = `
UPDATE businesses
SET search_tokens =
    setweight(to_tsvector('english', coalesce(entity_name, '')), 'A') ||
    setweight(to_tsvector('english', coalesce(given_name, '') || ' ' || coalesce(family_name, '')), 'B') ||
    setweight(to_tsvector('english', coalesce(state, '') || ' ' || coalesce(postcode, '')), 'C')
WHERE search_tokens IS NULL;
`

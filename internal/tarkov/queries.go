package tarkov

const itemsQuery = `query Items($lang: LanguageCode, $gameMode: GameMode) {
  items(lang: $lang, gameMode: $gameMode) {
    id
    name
    normalizedName
    shortName
    width
    height
    avg24hPrice
    lastLowPrice
    changeLast48h
    low24hPrice
    high24hPrice
    lastOfferCount
    changeLast48hPercent
    category {
      name
    }
    buyFor {
      price
      currency
      priceRUB
      source
    }
    sellFor {
      price
      currency
      priceRUB
      source
    }
    bartersFor {
      id
    }
    bartersUsing {
      id
    }
  }
}`

const historicalPricesQuery = `query History($id: ID!, $days: Int, $lang: LanguageCode, $gameMode: GameMode) {
  historicalItemPrices(id: $id, days: $days, lang: $lang, gameMode: $gameMode) {
    price
    priceMin
    timestamp
  }
}`

const tradersQuery = `query Traders($lang: LanguageCode, $gameMode: GameMode) {
  traders(lang: $lang, gameMode: $gameMode) {
    id
    name
    normalizedName
    cashOffers {
      item {
        id
        name
        basePrice
        low24hPrice
        avg24hPrice
        lastLowPrice
        lastOfferCount
        category {
          name
        }
        sellFor {
          price
          currency
          priceRUB
          source
        }
      }
      minTraderLevel
      price
      currency
      priceRUB
      buyLimit
      taskUnlock {
        id
        name
      }
    }
  }
}`
